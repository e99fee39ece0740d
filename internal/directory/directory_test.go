package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
)

const seed = `
actors:
  - id: stu-1
    name: Asha Menon
    role: student
    class_id: cse-3a
  - id: fac-1
    name: Dr Rao
    role: Faculty
    department: cse
    classes: [cse-3a, cse-3b]
  - id: adm-1
    name: Registrar
    role: admin
`

func TestParse(t *testing.T) {
	dir, err := Parse([]byte(seed))
	require.NoError(t, err)
	assert.Equal(t, 3, dir.Len())

	fac, err := dir.ResolveActor(context.Background(), "fac-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFaculty, fac.Role)
	assert.Equal(t, []string{"cse-3a", "cse-3b"}, fac.Classes)

	fac.Classes[0] = "changed"
	again, err := dir.ResolveActor(context.Background(), "fac-1")
	require.NoError(t, err)
	assert.Equal(t, "cse-3a", again.Classes[0])

	_, err = dir.ResolveActor(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUnknownActor)
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse([]byte("actors:\n  - id: x\n    role: janitor\n"))
	assert.ErrorContains(t, err, "invalid role")

	_, err = Parse([]byte("actors:\n  - id: x\n    role: admin\n  - id: x\n    role: admin\n"))
	assert.ErrorContains(t, err, "duplicate")

	_, err = Parse([]byte("actors:\n  - name: nobody\n    role: admin\n"))
	assert.ErrorContains(t, err, "id required")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	dir, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, dir.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCachedDirectory_WithoutRedis(t *testing.T) {
	static, err := Parse([]byte(seed))
	require.NoError(t, err)

	cached := NewCachedDirectory(static, nil, 0, nil)
	actor, err := cached.ResolveActor(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Menon", actor.Name)
	assert.NoError(t, cached.Invalidate(context.Background(), "stu-1"))
}

func TestCachedDirectory_RedisDownFallsBack(t *testing.T) {
	static, err := Parse([]byte(seed))
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	cached := NewCachedDirectory(static, client, time.Minute, nil)
	actor, err := cached.ResolveActor(context.Background(), "adm-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, actor.Role)

	_, err = cached.ResolveActor(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUnknownActor)
}

func TestStaticDirectory_ActorsSortedCopies(t *testing.T) {
	dir, err := Parse([]byte(seed))
	require.NoError(t, err)

	actors := dir.Actors()
	require.Len(t, actors, 3)
	assert.Equal(t, []string{"adm-1", "fac-1", "stu-1"}, []string{actors[0].ID, actors[1].ID, actors[2].ID})

	actors[1].Classes[0] = "mutated"
	fac, err := dir.ResolveActor(context.Background(), "fac-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"cse-3a", "cse-3b"}, fac.Classes)
}

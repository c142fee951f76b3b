package secret

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvStore_RoundTrip(t *testing.T) {
	s := NewEnvStore()
	t.Cleanup(func() { os.Unsetenv("CLIO_SECRET_DB_PROD") })

	v, err := s.Get("db.prod")
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, s.Set("db.prod", []byte("hunter2")))
	require.Equal(t, "hunter2", os.Getenv("CLIO_SECRET_DB_PROD"))

	v, err = s.Get("db.prod")
	require.NoError(t, err)
	require.Equal(t, "hunter2", string(v))

	require.NoError(t, s.Delete("db.prod"))
	v, err = s.Get("db.prod")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestEnvStore_ReadsExistingVariable(t *testing.T) {
	t.Setenv("CLIO_SECRET_MONGO_1", "s3cret")

	got, err := Require(NewEnvStore(), "mongo-1")
	require.NoError(t, err)
	require.Equal(t, "s3cret", got)
}

func TestRequire_Missing(t *testing.T) {
	_, err := Require(NewEnvStore(), "absent-key")
	require.ErrorIs(t, err, ErrNoSecret)

	t.Setenv("CLIO_SECRET_EMPTY", "")
	_, err = Require(NewEnvStore(), "empty")
	require.ErrorIs(t, err, ErrNoSecret)
}

package localrt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls [][]string
	out   string
	err   error
}

func (r *recorder) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return []byte(r.out), r.err
}

func TestDocker_Start(t *testing.T) {
	rec := &recorder{out: "3f2a9c\n"}
	d := NewDocker(WithRunner(rec.run))

	require.NoError(t, d.Start(context.Background(), NewService(8001, false)))
	assert.Equal(t, [][]string{{
		"docker", "run", "-p", "8001:8000", "-d", "--rm", "--name", "dynamoCarpenter", "amazon/dynamodb-local",
	}}, rec.calls)
}

func TestDocker_StartGUI(t *testing.T) {
	rec := &recorder{}
	d := NewDocker(WithRunner(rec.run), WithBinary("podman"))

	require.NoError(t, d.Start(context.Background(), NewService(8000, true)))
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "podman", rec.calls[0][0])
	assert.Equal(t, "instructure/dynamo-local-admin", rec.calls[0][len(rec.calls[0])-1])
}

func TestDocker_Stop(t *testing.T) {
	rec := &recorder{}
	d := NewDocker(WithRunner(rec.run))

	require.NoError(t, d.Stop(context.Background(), ""))
	require.NoError(t, d.Stop(context.Background(), "other"))
	assert.Equal(t, [][]string{
		{"docker", "stop", "dynamoCarpenter"},
		{"docker", "stop", "other"},
	}, rec.calls)
}

func TestDocker_Failure(t *testing.T) {
	boom := errors.New("exit status 125")
	rec := &recorder{out: "port is already allocated", err: boom}
	d := NewDocker(WithRunner(rec.run))

	err := d.Start(context.Background(), NewService(8000, false))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "port is already allocated")
}

func TestDocker_InvalidService(t *testing.T) {
	rec := &recorder{}
	d := NewDocker(WithRunner(rec.run))

	assert.Error(t, d.Start(context.Background(), Service{Name: "x", Image: "img", Port: 0}))
	assert.Error(t, d.Start(context.Background(), Service{Name: "", Image: "img", Port: 80}))
	assert.Error(t, d.Start(context.Background(), Service{Name: "x", Port: 80}))
	assert.Empty(t, rec.calls)
}

package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constTask struct {
	key string
	val any
	err error
	ran *int
}

func (t *constTask) CacheKey() string { return t.key }

func (t *constTask) Run(ctx context.Context, g *Graph) (any, error) {
	if t.ran != nil {
		*t.ran++
	}
	if t.err != nil {
		return nil, t.err
	}
	return t.val, nil
}

func TestGraphRunUnwrapsBailoutAtRoot(t *testing.T) {
	g := NewGraph(Serial, 1)
	task := &constTask{err: &Bailout{Value: 42}}
	v, err := g.Run(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestGraphMemoizesByCacheKey(t *testing.T) {
	g := NewGraph(Fiber, 4)
	ran := 0
	tasks := []Task{
		&constTask{key: "shared", val: 1, ran: &ran},
		&constTask{key: "shared", val: 1, ran: &ran},
		&constTask{key: "shared", val: 1, ran: &ran},
	}
	_, err := g.Branch(context.Background(), tasks, false)
	require.NoError(t, err)
	assert.Equal(t, 1, ran, "a shared cache key must only execute once")
}

func TestBranchInterruptBailsOutSiblings(t *testing.T) {
	g := NewGraph(Fiber, 4)
	tasks := []Task{
		&constTask{val: "ok"},
		&constTask{err: &Bailout{Value: "bailed"}},
	}
	values, err := g.Branch(context.Background(), tasks, true)
	require.Error(t, err)
	b, ok := err.(*Bailout)
	require.True(t, ok)
	assert.Equal(t, "bailed", b.Value)
	_ = values
}

func TestBranchWithoutInterruptPropagatesRealError(t *testing.T) {
	g := NewGraph(Serial, 1)
	boom := &processError{"boom"}
	tasks := []Task{
		&constTask{val: 1},
		&constTask{err: boom},
	}
	_, err := g.Branch(context.Background(), tasks, false)
	require.Error(t, err)
	assert.Equal(t, boom, err)
}

func TestSerialBackendForcesParallelismToOne(t *testing.T) {
	g := NewGraph(Serial, 8)
	assert.Equal(t, 1, g.parallelism)
	assert.Nil(t, g.sem)
}

func TestFiberBlockedTaskRespectsParallelismBound(t *testing.T) {
	g := NewGraph(Fiber, 2)
	ctx := context.Background()

	// acquire both slots, then verify a third attempt blocks until release.
	require.NoError(t, g.acquireBlocked(ctx))
	require.NoError(t, g.acquireBlocked(ctx))

	done := make(chan struct{})
	go func() {
		_ = g.acquireBlocked(ctx)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("third acquire should not have succeeded while both slots are held")
	default:
	}

	g.releaseBlocked()
	<-done
	g.releaseBlocked()
}

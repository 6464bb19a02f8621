package board

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhng/qaboard/internal/model"
)

func TestHandleDrop_cancelled_drop_is_noop(t *testing.T) {
	gw := &fakeGateway{}
	c := newController(gw, model.Report{ID: "3", Status: model.StatusNew})

	_, handled, err := c.HandleDrop(context.Background(), Drop{
		Source:   DropTarget{Bucket: model.StatusNew, Index: 0},
		Dest:     nil,
		ReportID: "3",
	})

	require.NoError(t, err)
	assert.False(t, handled)
	assert.Equal(t, 0, gw.callCount())
}

func TestHandleDrop_same_position_is_noop(t *testing.T) {
	gw := &fakeGateway{}
	c := newController(gw, model.Report{ID: "3", Status: model.StatusNew})

	_, handled, err := c.HandleDrop(context.Background(), Drop{
		Source:   DropTarget{Bucket: model.StatusNew, Index: 0},
		Dest:     &DropTarget{Bucket: model.StatusNew, Index: 0},
		ReportID: "3",
	})

	require.NoError(t, err)
	assert.False(t, handled)
	assert.Equal(t, 0, gw.callCount())

	got, _ := c.Cache().Get("3")
	assert.Equal(t, model.StatusNew, got.Status)
}

func TestHandleDrop_cross_column_transitions_status(t *testing.T) {
	// Dragging record 3 from "new" index 0 to "done" index 0 invokes
	// the controller with (3, done); on success the status is done.
	gw := &fakeGateway{}
	c := newController(gw, model.Report{ID: "3", Status: model.StatusNew})

	confirmed, handled, err := c.HandleDrop(context.Background(), Drop{
		Source:   DropTarget{Bucket: model.StatusNew, Index: 0},
		Dest:     &DropTarget{Bucket: model.StatusDone, Index: 0},
		ReportID: "3",
	})

	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, model.StatusDone, confirmed.Status)
	assert.Equal(t, []string{"3:done"}, gw.calls)

	got, _ := c.Cache().Get("3")
	assert.Equal(t, model.StatusDone, got.Status)
}

func TestHandleDrop_same_column_different_index_reapplies_status(t *testing.T) {
	gw := &fakeGateway{}
	c := newController(gw, model.Report{ID: "3", Status: model.StatusNew})

	_, handled, err := c.HandleDrop(context.Background(), Drop{
		Source:   DropTarget{Bucket: model.StatusNew, Index: 0},
		Dest:     &DropTarget{Bucket: model.StatusNew, Index: 2},
		ReportID: "3",
	})

	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 1, gw.callCount())

	got, _ := c.Cache().Get("3")
	assert.Equal(t, model.StatusNew, got.Status)
}

func TestHandleDrop_failure_surfaces_and_rolls_back(t *testing.T) {
	gw := &fakeGateway{fail: errors.New("network down")}
	c := newController(gw, model.Report{ID: "3", Status: model.StatusNew})

	_, handled, err := c.HandleDrop(context.Background(), Drop{
		Source:   DropTarget{Bucket: model.StatusNew, Index: 0},
		Dest:     &DropTarget{Bucket: model.StatusDone, Index: 1},
		ReportID: "3",
	})

	require.Error(t, err)
	assert.True(t, handled)

	got, _ := c.Cache().Get("3")
	assert.Equal(t, model.StatusNew, got.Status)
}

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nestedDefinition() *Definition {
	return New("nested",
		Start("start").WithFlow("taskBefore"),
		Task("taskBefore").WithFlow("subProcess"),
		SubProcess("subProcess",
			Start("subStart").WithFlow("nestedSubProcess"),
			SubProcess("nestedSubProcess",
				Start("nestedStart").WithFlow("nestedSubTask"),
				Task("nestedSubTask").WithFlow("nestedEnd"),
				End("nestedEnd"),
			).WithDataObject("name", "John").WithFlow("subEnd"),
			End("subEnd"),
		).WithFlow("end"),
		Boundary("subTimer", "subProcess").WithTimer("PT5M").WithFlow("end"),
		EventSubProcess("onSignal",
			Start("onSignalStart").WithSignal("mySignal"),
		),
		End("end"),
	)
}

func TestDefinition_Init(t *testing.T) {
	definition := nestedDefinition()
	require.NoError(t, definition.Init())

	testCases := []struct {
		name           string
		activityID     string
		expectedScope  []string
		expectedParent string
	}{
		{name: "root level", activityID: "taskBefore", expectedScope: nil, expectedParent: RootScope},
		{name: "one level", activityID: "nestedSubProcess", expectedScope: []string{"subProcess"}, expectedParent: "subProcess"},
		{name: "two levels", activityID: "nestedSubTask", expectedScope: []string{"subProcess", "nestedSubProcess"}, expectedParent: "nestedSubProcess"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var actual []string
			for _, scope := range definition.ScopeChain(tc.activityID) {
				actual = append(actual, scope.ID)
			}
			assert.Equal(t, tc.expectedScope, actual)
			assert.Equal(t, tc.expectedParent, definition.Activity(tc.activityID).ParentID)
		})
	}

	assert.Equal(t, []string{"subTimer"}, definition.Activity("subProcess").Boundary)
	assert.Equal(t, 2, definition.Activity("end").Incoming)
	assert.Equal(t, "start", definition.InitialStart(RootScope).ID)
	assert.Equal(t, "nestedStart", definition.InitialStart("nestedSubProcess").ID)
	starts := definition.EventStarts(RootScope)
	if assert.Len(t, starts, 1) {
		assert.Equal(t, "onSignalStart", starts[0].ID)
	}
	assert.Len(t, definition.BoundaryEvents("subProcess"), 1)
	assert.Nil(t, definition.Activity("missing"))
}

func TestDefinition_InitErrors(t *testing.T) {
	testCases := []struct {
		name       string
		definition *Definition
	}{
		{name: "empty id", definition: New("", Start("start"))},
		{name: "duplicate", definition: New("d", Start("start").WithFlow("a"), Task("a"), Task("a"))},
		{name: "unknown target", definition: New("d", Start("start").WithFlow("missing"))},
		{name: "cross scope flow", definition: New("d", Start("start").WithFlow("inner"), SubProcess("sub", Start("s").WithFlow("inner"), Task("inner")))},
		{name: "unknown host", definition: New("d", Start("start"), Boundary("b", "missing").WithTimer("PT1M"))},
		{name: "boundary without event", definition: New("d", Start("start").WithFlow("a"), Task("a"), Boundary("b", "a"))},
		{name: "catch without event", definition: New("d", Start("start").WithFlow("c"), CatchEvent("c"))},
		{name: "no start", definition: New("d", Task("a"))},
		{name: "event sub-process plain start", definition: New("d", Start("start"), EventSubProcess("esp", Start("s")))},
		{name: "task nesting", definition: New("d", Start("start"), Task("a").AddActivity(Task("b")))},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.definition.Init())
		})
	}
}

func TestDefinition_Clone(t *testing.T) {
	definition := nestedDefinition()
	require.NoError(t, definition.Init())
	cloned := definition.Clone()
	cloned.Activity("nestedSubProcess").DataObjects[0].Value = "Joe"
	assert.Equal(t, "John", definition.Activity("nestedSubProcess").DataObjects[0].Value)
	assert.Equal(t, "subProcess", cloned.Activity("nestedSubProcess").ParentID)
	assert.Equal(t, []string{"subTimer"}, cloned.Activity("subProcess").Boundary)
}

func TestEvent_IsInterrupting(t *testing.T) {
	assert.True(t, Boundary("b", "a").WithTimer("PT1M").Event.IsInterrupting())
	assert.False(t, Boundary("b", "a").WithTimer("PT1M").NonInterrupting().Event.IsInterrupting())
	var event *Event
	assert.True(t, event.IsInterrupting())
}

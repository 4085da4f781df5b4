package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_RecordError_WriteOnce(t *testing.T) {
	s := NewState("run-1")

	assert.False(t, s.RecordError(""), "empty message must not be stored")
	assert.True(t, s.RecordError("first"))
	assert.False(t, s.RecordError("second"), "slot must not be overwritten")
	assert.Equal(t, "first", s.ErrorMessage)
}

func TestState_Require(t *testing.T) {
	s := NewState("run-1")
	s.VehicleID = "veh_007"

	err := s.Require("diagnosis", FieldVehicleID, FieldAnomaly, FieldDRPS)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnmetPrecondition))

	var unmet *UnmetPrecondition
	require.True(t, errors.As(err, &unmet))
	assert.Equal(t, "diagnosis", unmet.Node)
	assert.Equal(t, []Field{FieldAnomaly, FieldDRPS}, unmet.Fields)

	s.Anomaly = &TelemetryRecord{VehicleID: "veh_007"}
	score := 90
	s.DRPS = &score
	assert.NoError(t, s.Require("diagnosis", FieldVehicleID, FieldAnomaly, FieldDRPS))
}

func TestState_Clone_IsDeep(t *testing.T) {
	s := NewState("run-1")
	score := 81
	cat := CategoryBrakes
	s.DRPS = &score
	s.Diagnosis = &cat
	s.History = append(s.History, "data_analysis")

	c := s.Clone()
	*c.DRPS = 10
	c.History[0] = "changed"

	if *s.DRPS != 81 {
		t.Errorf("Expected original DRPS to stay 81, got %d", *s.DRPS)
	}
	if s.History[0] != "data_analysis" {
		t.Errorf("Expected original history to be untouched, got %v", s.History)
	}
}

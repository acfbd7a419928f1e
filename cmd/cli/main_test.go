package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"psyfit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPFCmd(t *testing.T) {
	out, err := execute(t, "pf", "--json", "--m", "20", "--s", "1.5", "20", "1000")
	require.NoError(t, err)
	var rows []pfRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.InDelta(t, 0.75, rows[0].P, 1e-12)
	assert.InDelta(t, 1.0, rows[1].P, 1e-12)

	out, err = execute(t, "pf", "--json", "--inverse", "--yes-no", "0.5")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.InDelta(t, 20, rows[0].X, 1e-12)

	_, err = execute(t, "pf", "--inverse", "0.4")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	_, err = execute(t, "pf", "twenty")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestHDICmd(t *testing.T) {
	out, err := execute(t, "hdi", "--json", "--dist", "normal", "--p1", "0", "--p2", "1", "--lo", "-5", "--hi", "5", "--points", "1001")
	require.NoError(t, err)
	var res hdiOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, -1.96, res.Interval.LowerBound, 0.1)
	assert.InDelta(t, 1.96, res.Interval.UpperBound, 0.1)
	assert.InDelta(t, 0, res.Mode, 1e-9)

	_, err = execute(t, "hdi", "--dist", "cauchy")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestSimulateCmd(t *testing.T) {
	out, err := execute(t, "simulate", "--json", "--method", "best_pest", "--seed", "3")
	require.NoError(t, err)
	var res simulateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "best_pest", string(res.Method))
	assert.InDelta(t, 20, res.TrueThreshold, 1e-9)
	assert.Equal(t, 50, res.Session.Trials())
	assert.True(t, res.Session.Ended)
	assert.NotNil(t, res.Fit)

	again, err := execute(t, "simulate", "--json", "--method", "best_pest", "--seed", "3")
	require.NoError(t, err)
	var res2 simulateOutput
	require.NoError(t, json.Unmarshal([]byte(again), &res2))
	assert.Equal(t, res.Session.Levels, res2.Session.Levels)
}

func TestBatchCmd(t *testing.T) {
	out, err := execute(t, "batch", "--method", "pest", "--runs", "4", "--workers", "2", "--seed", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "runs:            4")

	_, err = execute(t, "batch", "--method", "pest", "--runs", "0")
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestConfigErrorsCarryCode(t *testing.T) {
	t.Setenv("PSY_MIN_LEVEL", "70")
	_, err := execute(t, "simulate")
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

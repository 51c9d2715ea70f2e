package prompt

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicworks/visitlink/pkg/errors"
	"github.com/clinicworks/visitlink/pkg/identity"
)

func request() identity.DecisionRequest {
	return identity.DecisionRequest{
		SourceName: "Jhon Smith",
		SourceDOB:  "6/1/1990",
		Candidates: []identity.Identity{
			{ID: "1002", Name: "John Smith", DOB: "6/1/1990"},
			{ID: "1003", Name: "Jon Smith", DOB: "6/1/1990"},
		},
	}
}

func TestDecideAccept(t *testing.T) {
	var out bytes.Buffer
	d := New(strings.NewReader("2\n"), &out)

	decision, err := d.Decide(context.Background(), request())
	require.NoError(t, err)
	assert.True(t, decision.Accepted)
	assert.Equal(t, "1003", decision.ID)

	dialog := out.String()
	assert.Contains(t, dialog, "Jhon Smith")
	assert.Contains(t, dialog, "[1] John Smith")
	assert.Contains(t, dialog, "[2] Jon Smith")
	assert.Equal(t, 1, d.Reviewed())
}

func TestDecideRejectAll(t *testing.T) {
	var out bytes.Buffer
	d := New(strings.NewReader("0\n"), &out)

	decision, err := d.Decide(context.Background(), request())
	require.NoError(t, err)
	assert.False(t, decision.Accepted)
	assert.False(t, decision.Skipped)
	assert.Contains(t, out.String(), "UNMATCHED")
}

func TestDecideSkip(t *testing.T) {
	var out bytes.Buffer
	d := New(strings.NewReader("S\n"), &out)

	decision, err := d.Decide(context.Background(), request())
	require.NoError(t, err)
	assert.True(t, decision.Skipped)
}

func TestDecideRepromptsOnInvalidInput(t *testing.T) {
	var out bytes.Buffer
	d := New(strings.NewReader("x\n9\n1\n"), &out)

	decision, err := d.Decide(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "1002", decision.ID)
	assert.Contains(t, out.String(), "Invalid selection.")
}

func TestDecideEOF(t *testing.T) {
	var out bytes.Buffer
	d := New(strings.NewReader(""), &out)

	_, err := d.Decide(context.Background(), request())
	assert.True(t, errors.IsCanceled(err))
}

func TestDecideCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(strings.NewReader("1\n"), &bytes.Buffer{})
	_, err := d.Decide(ctx, request())
	assert.Error(t, err)
}

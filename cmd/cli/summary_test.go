package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/signupboard/catalog"
	"github.com/nomis52/signupboard/loader"
	"github.com/nomis52/signupboard/page"
)

func TestWriteSummary(t *testing.T) {
	p, err := page.NewDefault()
	require.NoError(t, err)
	loader.New(loader.SourceFunc(func(context.Context) (catalog.Catalog, error) {
		return catalog.Catalog{
			{Name: "Chess Club", Activity: catalog.Activity{
				Description: "Learn strategies", Schedule: "Fridays", MaxParticipants: 2,
				Participants: []string{"a@x.com"},
			}},
			{Name: "Gym Class", Activity: catalog.Activity{
				Description: "Physical education", Schedule: "Mondays", MaxParticipants: 30,
				Participants: []string{},
			}},
		}, nil
	})).Load(context.Background(), p)

	var buf bytes.Buffer
	writeSummary(&buf, p)
	assert.Equal(t, `Chess Club
  Learn strategies
  Schedule: Fridays
  Availability: 1 spots left
    - a@x.com

Gym Class
  Physical education
  Schedule: Mondays
  Availability: 30 spots left
    - No participants yet.
`, buf.String())
}

func TestWriteSummary_LoadError(t *testing.T) {
	p, err := page.NewDefault()
	require.NoError(t, err)
	loader.New(loader.SourceFunc(func(context.Context) (catalog.Catalog, error) {
		return nil, errors.New("down")
	})).Load(context.Background(), p)

	var buf bytes.Buffer
	writeSummary(&buf, p)
	assert.Equal(t, loader.LoadErrorText+"\n", buf.String())
}

func TestParseParticipant(t *testing.T) {
	req, err := parseParticipant("signup", []string{"-activity", "Chess Club", "-email", "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "Chess Club", req.Activity)
	assert.Equal(t, "a@x.com", req.Email)

	_, err = parseParticipant("signup", []string{"-activity", "Chess Club"})
	assert.ErrorContains(t, err, "requires -activity and -email")
}

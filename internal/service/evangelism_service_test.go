package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churchadmin/internal/models"
)

func TestEvangelismServiceConvertProspect(t *testing.T) {
	env := newTestEnv(t)
	svc := NewEvangelismService(env.evangelism, env.persons)

	group, err := svc.CreateGroup(GroupInput{Name: "Thursday Outreach"})
	require.NoError(t, err)
	assert.True(t, group.IsActive)

	prospect, err := svc.CreateProspect(ProspectInput{GroupID: group.ID, Name: "Mary Magdala", Contact: "mary@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.StageInvited, prospect.Stage)

	_, err = svc.UpdateProspect(prospect.ID, ProspectInput{Name: "Mary Magdala", Stage: models.StageConverted})
	assert.Contains(t, fieldErrors(t, err), "stage")

	converted, person, err := svc.ConvertProspect(prospect.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageConverted, converted.Stage)
	require.NotNil(t, converted.ConvertedPersonID)
	assert.Equal(t, person.ID, *converted.ConvertedPersonID)
	assert.Equal(t, models.PersonVisitor, person.Status)
	assert.Equal(t, "Mary", person.FirstName)
	assert.Equal(t, "Magdala", person.LastName)
	assert.Equal(t, "mary@example.com", person.Email)

	_, _, err = svc.ConvertProspect(prospect.ID)
	assert.ErrorIs(t, err, ErrAlreadyConverted)

	updated, err := svc.UpdateProspect(prospect.ID, ProspectInput{Name: "Mary of Magdala", Stage: models.StageDropped})
	require.NoError(t, err)
	assert.Equal(t, models.StageConverted, updated.Stage, "a converted prospect keeps its stage")

	_, _, err = svc.ConvertProspect(9999)
	assert.ErrorIs(t, err, ErrProspectNotFound)
}

func TestEvangelismServicePipeline(t *testing.T) {
	env := newTestEnv(t)
	svc := NewEvangelismService(env.evangelism, env.persons)

	active, err := svc.CreateGroup(GroupInput{Name: "Campus"})
	require.NoError(t, err)
	_, err = svc.CreateGroup(GroupInput{Name: "Retired", IsActive: ptr(false)})
	require.NoError(t, err)

	for _, in := range []ProspectInput{
		{GroupID: active.ID, Name: "A"},
		{GroupID: active.ID, Name: "B", Stage: models.StageAttended},
		{GroupID: active.ID, Name: "C", Stage: models.StageAttended},
	} {
		_, err := svc.CreateProspect(in)
		require.NoError(t, err)
	}

	pipelines, err := svc.Pipeline(true)
	require.NoError(t, err)
	require.Len(t, pipelines, 1)
	p := pipelines[0]
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, map[models.ProspectStage]int{
		models.StageInvited:   1,
		models.StageAttended:  2,
		models.StageConverted: 0,
		models.StageDropped:   0,
	}, p.Stages)

	all, err := svc.Pipeline(false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	attended, err := svc.ListProspects(active.ID, models.StageAttended)
	require.NoError(t, err)
	assert.Len(t, attended, 2)

	_, err = svc.ListProspects(active.ID, "LOST")
	assert.Contains(t, fieldErrors(t, err), "stage")

	_, err = svc.CreateProspect(ProspectInput{GroupID: active.ID, Name: "D", InvitedByID: ptr(int64(42))})
	assert.Contains(t, fieldErrors(t, err), "invited_by_id")
}

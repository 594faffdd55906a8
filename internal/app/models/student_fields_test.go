package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentFieldsRegistry(t *testing.T) {
	fields := StudentFields()
	require.Len(t, fields, 48)

	assert.Equal(t, "fullName", fields[0].Name)
	assert.Equal(t, "Nama Lengkap", fields[0].Label)
	assert.Equal(t, "headCircumference", fields[len(fields)-1].Name)

	nisn, ok := LookupStudentField("nisn")
	require.True(t, ok)
	assert.True(t, nisn.Text)
	assert.True(t, nisn.Centered)

	birth, ok := LookupStudentField("birthDate")
	require.True(t, ok)
	assert.True(t, birth.Date)
	assert.False(t, birth.Text)

	gender, ok := LookupStudentField("gender")
	require.True(t, ok)
	assert.Equal(t, GenderOptions, gender.Options)
	income, ok := LookupStudentField("guardianIncome")
	require.True(t, ok)
	assert.Equal(t, IncomeOptions, income.Options)
	assert.Nil(t, nisn.Options)

	_, ok = LookupStudentField("academicYear")
	assert.False(t, ok)
	_, ok = LookupStudentField("createdAt")
	assert.False(t, ok)
}

func TestStudentProfileGetSet(t *testing.T) {
	p := StudentProfile{FullName: "Siti Aminah", FatherName: "Budi"}

	v, ok := p.Get("fatherName")
	require.True(t, ok)
	assert.Equal(t, "Budi", v)

	assert.True(t, p.Set("fatherName", "Ahmad"))
	assert.Equal(t, "Ahmad", p.FatherName)

	assert.False(t, p.Set("unknown", "x"))
	_, ok = p.Get("unknown")
	assert.False(t, ok)

	values := p.Values()
	assert.Len(t, values, 48)
	assert.Equal(t, "Siti Aminah", values["fullName"])
	assert.Equal(t, "", values["nisn"])
}

func TestDecisionStatus(t *testing.T) {
	s, ok := DecisionApprove.Status()
	assert.True(t, ok)
	assert.Equal(t, CorrectionApproved, s)

	s, ok = DecisionReject.Status()
	assert.True(t, ok)
	assert.Equal(t, CorrectionRejected, s)

	_, ok = Decision("maybe").Status()
	assert.False(t, ok)
}

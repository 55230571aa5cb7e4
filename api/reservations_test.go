package api

import (
	"strings"
	"testing"
	"time"

	"github.com/floracafe/cafesite/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReservation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2025, 6, 1, 18, 0, 0, 0, loc)
	valid := models.ReservationRequest{
		Name:   "Maria",
		Email:  "maria@example.com",
		Phone:  "(85) 99999-0000",
		Date:   "2025-06-01",
		Time:   "19:00",
		Guests: 2,
	}

	tests := []struct {
		name    string
		mutate  func(r *models.ReservationRequest)
		wantErr string
	}{
		{"valid", func(*models.ReservationRequest) {}, ""},
		{"six guests", func(r *models.ReservationRequest) { r.Guests = 6 }, ""},
		{"seven guests", func(r *models.ReservationRequest) { r.Guests = 7 }, "guests must be between"},
		{"negative guests", func(r *models.ReservationRequest) { r.Guests = -1 }, "guests must be between"},
		{"blank name", func(r *models.ReservationRequest) { r.Name = "  " }, "name is required"},
		{"bad email", func(r *models.ReservationRequest) { r.Email = "maria" }, "valid email"},
		{"no phone", func(r *models.ReservationRequest) { r.Phone = "" }, "phone is required"},
		{"bad time", func(r *models.ReservationRequest) { r.Time = "7pm" }, "invalid time format"},
		{"bad date", func(r *models.ReservationRequest) { r.Date = "01/06/2025" }, "invalid date format"},
		{"earlier today", func(r *models.ReservationRequest) { r.Time = "17:59" }, "in the future"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := validateReservation(&req, now, loc)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReservationNormalizes(t *testing.T) {
	req := models.ReservationRequest{
		Name:  "  Maria ",
		Email: " maria@example.com ",
		Phone: " 123 ",
		Date:  "2030-01-01",
		Time:  "12:00",
	}
	require.NoError(t, validateReservation(&req, time.Now(), time.UTC))
	assert.Equal(t, "Maria", req.Name)
	assert.Equal(t, "maria@example.com", req.Email)
	assert.Equal(t, 1, req.Guests)
}

func TestValidateReservationReportsEveryProblem(t *testing.T) {
	req := models.ReservationRequest{Guests: 9, Time: "x", Date: "y"}
	err := validateReservation(&req, time.Now(), time.UTC)
	require.Error(t, err)
	for _, want := range []string{"name", "email", "phone", "guests", "time", "date"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateContact(t *testing.T) {
	ok := models.ContactRequest{Name: "Rui", Email: "rui@example.com", Message: "Olá!"}
	assert.NoError(t, validateContact(&ok))

	long := ok
	long.Message = strings.Repeat("é", maxMessageLength)
	assert.NoError(t, validateContact(&long))

	long.Message += "é"
	assert.ErrorContains(t, validateContact(&long), "at most")

	empty := ok
	empty.Message = "   "
	assert.ErrorContains(t, validateContact(&empty), "message is required")
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"futsal/internal/challenges/service"
	"futsal/internal/challenges/validator"
	"futsal/internal/testutil"
	"futsal/pkg/auth"
	apperrors "futsal/pkg/errors"
	"futsal/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture serves the real challenge engine over in-memory stores.
type fixture struct {
	w      *testutil.World
	router *httprouter.Router
	b      *model.Booking
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w := testutil.NewWorld("owner-1")
	b := w.Bookings.Put(model.Booking{
		VenueID:   w.Venue.ID,
		PlayerID:  "alice",
		Date:      testutil.Date("2024-06-01"),
		SlotID:    w.AddSlot("2024-06-01", "18:00"),
		StartTime: "18:00",
		Status:    model.BookingConfirmed,
	})
	svc := service.NewChallengeService(w.Challenges, w.Bookings, validator.NewChallengeValidator(w.Cfg.Log), w.Events, w.Cfg)

	router := httprouter.New()
	NewChallengeHandler(svc, w.Cfg.Log).RegisterRoutes(router)
	return &fixture{w: w, router: router, b: b}
}

func (f *fixture) do(method, path, player string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if player != "" {
		req = req.WithContext(auth.WithIdentity(req.Context(), testutil.Player(player)))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeChallenge(t *testing.T, rec *httptest.ResponseRecorder) model.Challenge {
	t.Helper()
	var resp struct {
		Data model.Challenge `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Data
}

func TestChallengeLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/challenges", "carol", model.ChallengeRequest{VenueID: f.w.Venue.ID, BookingID: f.b.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decodeChallenge(t, rec)

	rec = f.do(http.MethodPost, "/api/v1/challenges/id/"+c.ID+"/accept", "carol", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/challenges/id/"+c.ID+"/accept", "dave", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.ChallengeAccepted, decodeChallenge(t, rec).Status)

	rec = f.do(http.MethodDelete, "/api/v1/challenges/id/"+c.ID, "carol", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "accepted challenges cannot be removed")

	rec = f.do(http.MethodPost, "/api/v1/challenges/id/"+c.ID+"/cancel", "dave", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.ChallengePending, decodeChallenge(t, rec).Status)

	rec = f.do(http.MethodDelete, "/api/v1/challenges/id/"+c.ID, "carol", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/challenges/id/"+c.ID, "carol", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ChallengeCancelled, decodeChallenge(t, rec).Status)
}

func TestGetByID_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/challenges/id/507f1f77bcf86cd799439011", "carol", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, apperrors.CodeNotFound, resp.Code)
}

func TestCreate_Unauthenticated(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/challenges", "", model.ChallengeRequest{VenueID: f.w.Venue.ID, BookingID: f.b.ID})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestList_RequiresVenue(t *testing.T) {
	f := newFixture(t)
	_, err := service.NewChallengeService(f.w.Challenges, f.w.Bookings, validator.NewChallengeValidator(f.w.Cfg.Log), f.w.Events, f.w.Cfg).
		Create(context.Background(), testutil.Player("carol"), &model.ChallengeRequest{VenueID: f.w.Venue.ID, BookingID: f.b.ID})
	require.NoError(t, err)

	rec := f.do(http.MethodGet, "/api/v1/challenges", "carol", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/challenges?venue_id="+f.w.Venue.ID+"&status=pending", "carol", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []model.Challenge `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Data, 1)
}

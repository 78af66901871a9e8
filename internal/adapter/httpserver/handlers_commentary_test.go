package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/pscheid92/sportzlive/internal/domain"
	apperrors "github.com/pscheid92/sportzlive/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCommentary(t *testing.T) {
	var gotMatch domain.MatchID
	var gotLimit int
	app := &mockAppService{listCommentaryFn: func(_ context.Context, matchID domain.MatchID, limit int) ([]domain.Commentary, error) {
		gotMatch, gotLimit = matchID, limit
		return []domain.Commentary{{ID: 2, MatchID: matchID}, {ID: 1, MatchID: matchID}}, nil
	}}
	srv := newTestServer(t, app)

	rec := doRequest(t, srv, http.MethodGet, "/matches/7/commentary", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.MatchID(7), gotMatch)
	assert.Equal(t, 100, gotLimit)

	var resp struct {
		Message string              `json:"message"`
		Count   int                 `json:"count"`
		Data    []domain.Commentary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Commentary retrieved successfully", resp.Message)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, int64(2), resp.Data[0].ID)
}

func TestListCommentary_UnknownMatchIsEmpty(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := doRequest(t, srv, http.MethodGet, "/matches/999/commentary", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Commentary retrieved successfully","count":0,"data":[]}`, rec.Body.String())
}

func TestListCommentary_InvalidParams(t *testing.T) {
	tests := []string{
		"/matches/abc/commentary",
		"/matches/0/commentary",
		"/matches/7/commentary?limit=0",
		"/matches/7/commentary?limit=101",
	}

	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			srv := newTestServer(t, &mockAppService{})

			rec := doRequest(t, srv, http.MethodGet, target, "")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateCommentary(t *testing.T) {
	var got domain.NewCommentary
	app := &mockAppService{createCommentaryFn: func(_ context.Context, in domain.NewCommentary) (*domain.Commentary, error) {
		got = in
		return &domain.Commentary{ID: 1, MatchID: in.MatchID, Sequence: in.Sequence, EventType: in.EventType, Actor: in.Actor, Message: in.Message}, nil
	}}
	srv := newTestServer(t, app)

	body := `{"minute":23,"sequence":4,"period":"1H","eventType":"goal","actor":"Saka","team":"Arsenal",
		"message":"Goal!","metadata":{"assist":"Odegaard"},"tags":["goal","highlight"]}`
	rec := doRequest(t, srv, http.MethodPost, "/matches/7/commentary", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.MatchID(7), got.MatchID)
	require.NotNil(t, got.Minute)
	assert.Equal(t, 23, *got.Minute)
	assert.Equal(t, "1H", got.Period)
	assert.Equal(t, "Odegaard", got.Metadata["assist"])
	assert.Equal(t, []string{"goal", "highlight"}, got.Tags)
	assert.Contains(t, rec.Body.String(), `"message":"Commentary created successfully"`)
	assert.Contains(t, rec.Body.String(), `"matchId":7`)
}

func TestCreateCommentary_PathWinsOverBody(t *testing.T) {
	var got domain.NewCommentary
	app := &mockAppService{createCommentaryFn: func(_ context.Context, in domain.NewCommentary) (*domain.Commentary, error) {
		got = in
		return &domain.Commentary{ID: 1, MatchID: in.MatchID}, nil
	}}
	srv := newTestServer(t, app)

	rec := doRequest(t, srv, http.MethodPost, "/matches/7/commentary",
		`{"matchId":99,"sequence":1,"eventType":"kickoff","actor":"ref","message":"Off we go"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.MatchID(7), got.MatchID)
}

func TestCreateCommentary_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing sequence", `{"eventType":"goal","actor":"a","message":"m"}`},
		{"zero sequence", `{"sequence":0,"eventType":"goal","actor":"a","message":"m"}`},
		{"negative minute", `{"minute":-1,"sequence":1,"eventType":"goal","actor":"a","message":"m"}`},
		{"missing event type", `{"sequence":1,"actor":"a","message":"m"}`},
		{"missing actor", `{"sequence":1,"eventType":"goal","message":"m"}`},
		{"missing message", `{"sequence":1,"eventType":"goal","actor":"a"}`},
		{"tags not strings", `{"sequence":1,"eventType":"goal","actor":"a","message":"m","tags":[1]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockAppService{})

			rec := doRequest(t, srv, http.MethodPost, "/matches/7/commentary", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apperrors.TypeValidation, decodeError(t, rec.Body.Bytes()).Type)
		})
	}
}

func TestCreateCommentary_UnknownMatch(t *testing.T) {
	app := &mockAppService{createCommentaryFn: func(context.Context, domain.NewCommentary) (*domain.Commentary, error) {
		return nil, domain.ErrMatchNotFound
	}}
	srv := newTestServer(t, app)

	rec := doRequest(t, srv, http.MethodPost, "/matches/7/commentary",
		`{"sequence":1,"eventType":"goal","actor":"a","message":"m"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "match not found", decodeError(t, rec.Body.Bytes()).Error)
}

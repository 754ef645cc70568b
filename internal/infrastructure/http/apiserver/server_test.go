package apiserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/recipeatlas/server/internal/infrastructure/container"
	"github.com/recipeatlas/server/internal/infrastructure/http/apiserver"
	"github.com/recipeatlas/server/internal/ports/inbound"
)

// client is one browser: it keeps its own session cookie
type client struct {
	s    *ServerTestSuite
	http *http.Client
}

type response struct {
	status int
	body   []byte
}

func (r response) json() map[string]interface{} {
	var out map[string]interface{}
	_ = json.Unmarshal(r.body, &out)
	return out
}

type ServerTestSuite struct {
	suite.Suite
	app      *fxtest.App
	ts       *httptest.Server
	taxonomy inbound.TaxonomyService

	stateID      uint
	otherStateID uint
	countryID    uint
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	t := s.T()
	t.Setenv("RECIPEATLAS_DATABASE_DRIVER", "sqlite")
	t.Setenv("RECIPEATLAS_DATABASE_PATH", ":memory:")
	t.Setenv("RECIPEATLAS_DATABASE_LOG_LEVEL", "silent")
	t.Setenv("RECIPEATLAS_APP_LOG_LEVEL", "error")
	t.Setenv("RECIPEATLAS_RATE_LIMIT_ENABLE", "false")
	t.Setenv("RECIPEATLAS_SESSION_BCRYPT_COST", "4")
	t.Setenv("RECIPEATLAS_SERVER_ENABLE_COMPRESSION", "false")

	var server *apiserver.Server
	s.app = fxtest.New(t,
		fx.NopLogger,
		container.ConfigModule(""),
		container.LoggerModule,
		container.DatabaseModule,
		container.EventModule,
		container.RepositoryModule,
		container.ServiceModule,
		container.ObservabilityModule,
		container.SessionModule,
		container.HTTPModule,
		fx.Populate(&server, &s.taxonomy),
	)
	s.app.RequireStart()

	s.ts = httptest.NewServer(server.Handler())

	ctx := context.Background()
	country, err := s.taxonomy.CreateCountry(ctx, inbound.CreateCountryCommand{Name: "Japan", Code: "JP", Continent: "Asia"})
	s.Require().NoError(err)
	s.countryID = country.ID
	state, err := s.taxonomy.CreateState(ctx, country.ID, "Osaka")
	s.Require().NoError(err)
	s.stateID = state.ID
	other, err := s.taxonomy.CreateState(ctx, country.ID, "Kyoto")
	s.Require().NoError(err)
	s.otherStateID = other.ID
}

func (s *ServerTestSuite) TearDownTest() {
	s.ts.Close()
	s.app.RequireStop()
}

func (s *ServerTestSuite) newClient() *client {
	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	return &client{s: s, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body interface{}) response {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		c.s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.s.ts.URL+path, reader)
	c.s.Require().NoError(err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	c.s.Require().NoError(err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	c.s.Require().NoError(err)
	return response{status: resp.StatusCode, body: raw}
}

// signedIn registers username and logs the returned client in
func (s *ServerTestSuite) signedIn(username string) *client {
	c := s.newClient()
	res := c.do(http.MethodPost, "/api/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	s.Require().Equal(http.StatusCreated, res.status, string(res.body))

	res = c.do(http.MethodPost, "/api/login", map[string]string{"username": username, "password": "secret123"})
	s.Require().Equal(http.StatusOK, res.status, string(res.body))
	return c
}

func (s *ServerTestSuite) createRecipe(c *client, title string) map[string]interface{} {
	res := c.do(http.MethodPost, "/api/recipes", map[string]interface{}{
		"title":        title,
		"description":  "A weeknight favourite",
		"instructions": "Mix everything and cook it.",
		"state_id":     s.stateID,
	})
	s.Require().Equal(http.StatusCreated, res.status, string(res.body))
	return res.json()
}

func id(v map[string]interface{}) uint {
	return uint(v["id"].(float64))
}

func (s *ServerTestSuite) TestAuthFlow() {
	c := s.newClient()

	res := c.do(http.MethodGet, "/api/auth/status", nil)
	s.Equal(http.StatusUnauthorized, res.status)
	s.Equal("Not authenticated", res.json()["message"])

	res = c.do(http.MethodPost, "/api/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	s.Require().Equal(http.StatusCreated, res.status)
	s.Equal("alice", res.json()["username"])

	// registering does not sign in
	res = c.do(http.MethodGet, "/api/auth/status", nil)
	s.Equal(http.StatusUnauthorized, res.status)

	res = c.do(http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "wrong-password"})
	s.Equal(http.StatusUnauthorized, res.status)

	res = c.do(http.MethodPost, "/api/login", map[string]string{"username": "alice@example.com", "password": "secret123"})
	s.Require().Equal(http.StatusOK, res.status)

	res = c.do(http.MethodGet, "/api/auth/status", nil)
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal("alice", res.json()["username"])
	s.Equal("alice@example.com", res.json()["email"])

	res = c.do(http.MethodPost, "/api/logout", nil)
	s.Equal(http.StatusOK, res.status)
	s.Equal("Logged out successfully", res.json()["message"])

	res = c.do(http.MethodGet, "/api/auth/status", nil)
	s.Equal(http.StatusUnauthorized, res.status)
}

func (s *ServerTestSuite) TestRegisterDuplicateUsername() {
	s.signedIn("alice")

	res := s.newClient().do(http.MethodPost, "/api/register", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "secret123",
	})
	s.Equal(http.StatusConflict, res.status)
	s.Equal("Conflict", res.json()["error"])
}

func (s *ServerTestSuite) TestMalformedJSON() {
	res := s.newClient().do(http.MethodPost, "/api/register", "{")
	s.Require().Equal(http.StatusBadRequest, res.status)

	body := res.json()
	s.Equal("ValidationError", body["error"])
	s.Equal("Malformed JSON body", body["message"])
	s.NotEmpty(body["request_id"])
}

func (s *ServerTestSuite) TestMissingFieldsAreListed() {
	res := s.newClient().do(http.MethodPost, "/api/register", map[string]string{})
	s.Require().Equal(http.StatusBadRequest, res.status)

	details := fmt.Sprint(res.json()["details"])
	s.Contains(details, "username is required")
	s.Contains(details, "email is required")
	s.Contains(details, "password is required")
}

func (s *ServerTestSuite) TestUnknownRoute() {
	res := s.newClient().do(http.MethodGet, "/api/nope", nil)
	s.Equal(http.StatusNotFound, res.status)
	s.Equal("NotFound", res.json()["error"])
}

func (s *ServerTestSuite) TestAnonymousCannotCreateRecipe() {
	res := s.newClient().do(http.MethodPost, "/api/recipes", map[string]interface{}{
		"title":    "Ramen",
		"state_id": s.stateID,
	})
	s.Equal(http.StatusUnauthorized, res.status)
}

func (s *ServerTestSuite) TestRecipeLifecycle() {
	alice := s.signedIn("alice")
	bob := s.signedIn("bob")

	first := s.createRecipe(alice, "Okonomiyaki")
	s.Equal("okonomiyaki", first["slug"])
	s.Equal("text", first["mode"])
	second := s.createRecipe(alice, "Okonomiyaki")
	s.Equal("okonomiyaki-1", second["slug"])

	res := bob.do(http.MethodGet, "/api/recipes/slug/okonomiyaki-1", nil)
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal(float64(id(second)), res.json()["id"])

	path := fmt.Sprintf("/api/recipes/%d", id(first))

	res = bob.do(http.MethodPut, path, map[string]string{"title": "Stolen"})
	s.Equal(http.StatusForbidden, res.status)
	res = bob.do(http.MethodGet, path+"/edit", nil)
	s.Equal(http.StatusForbidden, res.status)

	res = alice.do(http.MethodPut, path, map[string]string{"title": "Hiroshima Okonomiyaki"})
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal("hiroshima-okonomiyaki", res.json()["slug"])

	res = alice.do(http.MethodGet, "/api/recipes", nil)
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal(float64(2), res.json()["total"])

	res = bob.do(http.MethodDelete, path, nil)
	s.Equal(http.StatusForbidden, res.status)
	res = alice.do(http.MethodDelete, path, nil)
	s.Equal(http.StatusNoContent, res.status)
	res = alice.do(http.MethodGet, path, nil)
	s.Equal(http.StatusNotFound, res.status)
}

func (s *ServerTestSuite) TestStructuredRecipe() {
	alice := s.signedIn("alice")

	res := alice.do(http.MethodPost, "/api/recipes", map[string]interface{}{
		"title":    "Takoyaki",
		"state_id": s.stateID,
		"steps": []map[string]interface{}{
			{"instruction": "Make the batter", "ingredients": []map[string]interface{}{
				{"name": "flour", "quantity": 200, "unit": "g"},
				{"name": "dashi", "quantity": 500, "unit": "ml"},
			}},
			{"instruction": "Fill the pan", "duration_minutes": 10},
		},
	})
	s.Require().Equal(http.StatusCreated, res.status, string(res.body))

	body := res.json()
	s.Equal("structured", body["mode"])
	s.Nil(body["instructions"])
	steps := body["steps"].([]interface{})
	s.Require().Len(steps, 2)
	s.Equal(float64(1), steps[0].(map[string]interface{})["step_number"])
	s.Equal(float64(2), steps[1].(map[string]interface{})["step_number"])
	s.Len(steps[0].(map[string]interface{})["ingredients"], 2)

	res = alice.do(http.MethodPost, "/api/recipes", map[string]interface{}{
		"title":    "Bad",
		"state_id": s.stateID,
		"steps":    []map[string]interface{}{{"instruction": "x", "duration_minutes": -1}},
	})
	s.Equal(http.StatusBadRequest, res.status)
}

func (s *ServerTestSuite) TestVotes() {
	alice := s.signedIn("alice")
	bob := s.signedIn("bob")
	recipe := s.createRecipe(alice, "Kitsune Udon")
	base := fmt.Sprintf("/api/recipes/%d", id(recipe))

	res := bob.do(http.MethodPost, base+"/upvote", nil)
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal(float64(1), res.json()["upvotes"])
	s.Equal("upvote", res.json()["user_vote"])

	res = bob.do(http.MethodPost, base+"/downvote", nil)
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal(float64(0), res.json()["upvotes"])
	s.Equal(float64(1), res.json()["downvotes"])
	s.Equal(float64(-1), res.json()["score"])

	res = bob.do(http.MethodPost, base+"/remove-vote", nil)
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal(float64(0), res.json()["downvotes"])
	s.Nil(res.json()["user_vote"])

	res = bob.do(http.MethodPost, "/api/recipes/9999/upvote", nil)
	s.Equal(http.StatusNotFound, res.status)
}

func (s *ServerTestSuite) TestCommentThread() {
	alice := s.signedIn("alice")
	bob := s.signedIn("bob")
	recipe := s.createRecipe(alice, "Yakisoba")
	other := s.createRecipe(alice, "Gyoza")
	comments := fmt.Sprintf("/api/recipes/%d/comments", id(recipe))

	res := alice.do(http.MethodPost, comments, map[string]string{"content": "Add more cabbage"})
	s.Require().Equal(http.StatusCreated, res.status)
	top := res.json()

	res = bob.do(http.MethodPost, comments, map[string]interface{}{"content": "Agreed", "parent_id": id(top)})
	s.Require().Equal(http.StatusCreated, res.status)
	reply := res.json()
	s.Equal(float64(id(top)), reply["parent_id"])

	res = bob.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/comments", id(other)), map[string]interface{}{
		"content":   "Wrong thread",
		"parent_id": id(top),
	})
	s.Equal(http.StatusBadRequest, res.status)

	res = bob.do(http.MethodGet, comments, nil)
	s.Require().Equal(http.StatusOK, res.status)
	items := res.json()["items"].([]interface{})
	s.Require().Len(items, 1)
	s.Len(items[0].(map[string]interface{})["replies"], 1)

	res = bob.do(http.MethodGet, fmt.Sprintf("/api/comments/%d/replies", id(top)), nil)
	s.Require().Equal(http.StatusOK, res.status)

	commentPath := fmt.Sprintf("/api/comments/%d", id(top))
	res = bob.do(http.MethodPut, commentPath, map[string]string{"content": "hijack"})
	s.Equal(http.StatusForbidden, res.status)

	res = alice.do(http.MethodPut, commentPath, map[string]string{"content": "Add much more cabbage"})
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal(true, res.json()["is_edited"])

	res = bob.do(http.MethodPost, commentPath+"/upvote", nil)
	s.Equal(http.StatusOK, res.status)

	res = alice.do(http.MethodDelete, commentPath, nil)
	s.Equal(http.StatusNoContent, res.status)
	res = bob.do(http.MethodGet, comments, nil)
	s.Equal(float64(0), res.json()["total"])
}

func (s *ServerTestSuite) TestFavorites() {
	alice := s.signedIn("alice")
	bob := s.signedIn("bob")
	recipe := s.createRecipe(bob, "Karaage")

	res := alice.do(http.MethodPost, "/api/favorites", map[string]interface{}{"favorite_type": "recipe", "favorite_id": id(recipe)})
	s.Require().Equal(http.StatusCreated, res.status, string(res.body))
	favorite := res.json()
	s.Equal("Karaage", favorite["favorite_data"].(map[string]interface{})["title"])

	res = alice.do(http.MethodPost, "/api/favorites", map[string]interface{}{"favorite_type": "recipe", "favorite_id": id(recipe)})
	s.Equal(http.StatusConflict, res.status)

	res = alice.do(http.MethodPost, "/api/favorites", map[string]interface{}{"favorite_type": "planet", "favorite_id": 1})
	s.Equal(http.StatusBadRequest, res.status)

	res = alice.do(http.MethodPost, "/api/favorites", map[string]interface{}{"favorite_type": "state", "favorite_id": 9999})
	s.Equal(http.StatusNotFound, res.status)

	res = alice.do(http.MethodPost, "/api/favorites", map[string]interface{}{"favorite_type": "country", "favorite_id": s.countryID})
	s.Require().Equal(http.StatusCreated, res.status)

	res = bob.do(http.MethodGet, "/api/users/alice/favorites?type=recipe", nil)
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal(float64(1), res.json()["total"])

	path := fmt.Sprintf("/api/favorites/%d", id(favorite))
	res = bob.do(http.MethodDelete, path, nil)
	s.Equal(http.StatusForbidden, res.status)
	res = alice.do(http.MethodDelete, path, nil)
	s.Equal(http.StatusNoContent, res.status)
}

func (s *ServerTestSuite) TestPerPageIsCapped() {
	res := s.newClient().do(http.MethodGet, "/api/recipes?per_page=500", nil)
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal(float64(100), res.json()["per_page"])
}

func (s *ServerTestSuite) TestSearchAndFeeds() {
	alice := s.signedIn("alice")
	s.createRecipe(alice, "Miso Soup")
	s.createRecipe(alice, "Tonkatsu")

	res := alice.do(http.MethodGet, "/api/search?q=miso", nil)
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal(float64(1), res.json()["total"])
	s.Equal("miso", res.json()["query"])

	res = alice.do(http.MethodGet, "/api/recipes/recent?limit=1", nil)
	s.Require().Equal(http.StatusOK, res.status)
	var recent []map[string]interface{}
	s.Require().NoError(json.Unmarshal(res.body, &recent))
	s.Len(recent, 1)

	res = alice.do(http.MethodGet, "/api/home", nil)
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal("alice", res.json()["user"].(map[string]interface{})["username"])
}

func (s *ServerTestSuite) TestTaxonomy() {
	c := s.newClient()

	res := c.do(http.MethodGet, "/api/countries", nil)
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal(float64(1), res.json()["total"])

	res = c.do(http.MethodGet, fmt.Sprintf("/api/countries/%d/states", s.countryID), nil)
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal(float64(2), res.json()["total"])

	res = c.do(http.MethodGet, fmt.Sprintf("/api/states?country_id=%d", s.countryID), nil)
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal(float64(2), res.json()["total"])

	res = c.do(http.MethodGet, "/api/countries/9999/recipes", nil)
	s.Equal(http.StatusNotFound, res.status)
	res = c.do(http.MethodGet, "/api/states/9999/recipes", nil)
	s.Equal(http.StatusNotFound, res.status)
}

func (s *ServerTestSuite) TestDeleteAccountEndsSession() {
	alice := s.signedIn("alice")
	s.createRecipe(alice, "Onigiri")

	res := alice.do(http.MethodDelete, "/api/user/profile", nil)
	s.Require().Equal(http.StatusNoContent, res.status)

	res = alice.do(http.MethodGet, "/api/auth/status", nil)
	s.Equal(http.StatusUnauthorized, res.status)
	res = alice.do(http.MethodGet, "/api/recipes", nil)
	s.Equal(float64(0), res.json()["total"])
}

func (s *ServerTestSuite) TestOperationalEndpoints() {
	c := s.newClient()

	res := c.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, res.status)
	s.Equal("healthy", res.json()["status"])

	res = c.do(http.MethodGet, "/metrics", nil)
	s.Equal(http.StatusOK, res.status)
	s.Contains(string(res.body), "recipeatlas_http_requests_total")

	res = c.do(http.MethodGet, "/api/openapi.json", nil)
	s.Require().Equal(http.StatusOK, res.status)
	s.Equal("3.0.3", res.json()["openapi"])
}

package routes

import (
	"eco-community-server/models"
	"eco-community-server/utils"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

func buildAnnouncementApp() *iris.Application {
	app := iris.New()
	app.Validator = validator.New()
	auth := newTestVerifier()

	organizationOnly := utils.RoleMiddleware("organization")
	announcements := app.Party("/api/announcements", auth)
	{
		announcements.Post("/", organizationOnly, CreateAnnouncement)
		announcements.Get("/", ListAnnouncements)
	}
	if err := app.Build(); err != nil {
		panic(err)
	}
	return app
}

func TestAnnouncementsPublishingIsOrganizationOnly(t *testing.T) {
	db := setupTestDB(t)
	w := seedWorld(t, db)
	app := buildAnnouncementApp()

	orgUser := models.User{Email: "ngo@example.com", Role: "organization", IsActive: true}
	db.Create(&orgUser)
	db.Create(&models.Organization{
		UserID:             orgUser.ID,
		OrganizationName:   "Green Futures",
		RegistrationNumber: "RC-2041",
	})

	body := `{"title": "Call for solar projects", "type": "opportunity"}`

	// Investors can read but not publish
	resp := postJSON(t, app, "/api/announcements", body)
	if resp.Code == http.StatusCreated {
		t.Fatal("anonymous publish must not succeed")
	}
	req := newAuthedRequest(t, http.MethodPost, "/api/announcements", body, signTestToken(t, w.investorUser.ID, "investor"))
	resp = serve(app, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("investor publish: got %d, want 403", resp.Code)
	}

	req = newAuthedRequest(t, http.MethodPost, "/api/announcements", body, signTestToken(t, orgUser.ID, "organization"))
	resp = serve(app, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("organization publish: got %d, body %s", resp.Code, resp.Body.String())
	}

	listResp, payload := getJSON(t, app, http.MethodGet, "/api/announcements", signTestToken(t, w.investorUser.ID, "investor"))
	if listResp.Code != http.StatusOK {
		t.Fatalf("investor listing: got %d, body %s", listResp.Code, payload)
	}
}

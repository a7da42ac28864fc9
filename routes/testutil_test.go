package routes

import (
	"eco-community-server/models"
	"eco-community-server/storage"
	"eco-community-server/utils"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points storage.DB at an isolated in-memory database for the
// duration of one test. The shared-cache DSN keeps every pooled connection
// on the same database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:routes_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Entrepreneur{}, &models.Investor{},
		&models.Organization{}, &models.Project{}, &models.HelpRequest{},
		&models.FinancialRequest{}, &models.TechnicalRequest{},
		&models.FinancialProposal{}, &models.TechnicalProposal{},
		&models.Contract{}, &models.Collaboration{},
		&models.Conversation{}, &models.Message{},
		&models.Announcement{}, &models.Event{},
	)
	if err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	previous := storage.DB
	storage.DB = db
	t.Cleanup(func() { storage.DB = previous })
	return db
}

// testWorld is the minimal party graph most route tests need: two users
// with profiles, an approved project and a pending financial help request
// asking for 5000.
type testWorld struct {
	entrepreneurUser models.User
	investorUser     models.User
	entrepreneur     models.Entrepreneur
	investor         models.Investor
	project          models.Project
	helpRequest      models.HelpRequest
}

func seedWorld(t *testing.T, db *gorm.DB) testWorld {
	t.Helper()
	w := testWorld{
		entrepreneurUser: models.User{Email: "founder@example.com", Role: "entrepreneur", IsActive: true},
		investorUser:     models.User{Email: "backer@example.com", Role: "investor", IsActive: true},
	}
	if err := db.Create(&w.entrepreneurUser).Error; err != nil {
		t.Fatalf("seeding entrepreneur user: %v", err)
	}
	if err := db.Create(&w.investorUser).Error; err != nil {
		t.Fatalf("seeding investor user: %v", err)
	}

	w.entrepreneur = models.Entrepreneur{UserID: w.entrepreneurUser.ID, FirstName: "Awa", LastName: "Diallo"}
	w.investor = models.Investor{UserID: w.investorUser.ID, FirstName: "Moussa", LastName: "Ba"}
	db.Create(&w.entrepreneur)
	db.Create(&w.investor)

	w.project = models.Project{
		EntrepreneurID: w.entrepreneur.ID,
		ProjectName:    "Solar Kiosk",
		Sector:         "energy",
		Status:         models.ProjectStatusApproved,
	}
	db.Create(&w.project)

	w.helpRequest = models.HelpRequest{
		ProjectID:      w.project.ID,
		EntrepreneurID: w.entrepreneur.ID,
		RequestType:    models.RequestTypeFinancial,
		SpecificNeed:   "startup capital",
		Status:         models.HelpRequestStatusPending,
	}
	db.Create(&w.helpRequest)
	db.Create(&models.FinancialRequest{
		HelpRequestID:   w.helpRequest.ID,
		AmountRequested: 5000,
		InterestRate:    5,
		DurationMonths:  12,
	})
	return w
}

// signTestToken returns a signed access token for the given identity.
func signTestToken(t *testing.T, id uint, role string) string {
	t.Helper()
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, err := signer.Sign(utils.AccessToken{ID: id, Role: role})
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return string(token)
}

func newAuthedRequest(t *testing.T, method, path, body, token string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func serve(app *iris.Application, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

// newTestVerifier builds the same access-token middleware main wires up.
func newTestVerifier() iris.Handler {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	verifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	return verifier.Verify(func() interface{} { return new(utils.AccessToken) })
}

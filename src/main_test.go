package main

import (
	"encoding/json"
	"fmt"
	"hms/src/db"
	"hms/src/middlewares"
	"hms/src/types"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
}

// testAuthMiddleware installs request identity the way AuthMiddleware does,
// without a token or a database behind it.
func testAuthMiddleware(ctx *gin.Context) {
	ctx.Set("id", uint(1))
	ctx.Set("email", "staff@example.com")
	ctx.Set("clinic", uint(1))
	ctx.Set("role", "admin")
}

func newMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	sqldb, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqldb,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("admissiondate", admissionDateValidatorFunc)
	}
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiGroup(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestUnauthorizedWithoutToken() {
	router := setupRouter()
	api := apiGroup(router)
	api.Use(middlewares.AuthMiddleware)
	admissionHandlers(api)

	s.Run("Should reject a request without a token", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/admissions", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("Should reject a bare Bearer header", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/admissions", nil)
		req.Header.Set("Authorization", "Bearer")
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})
}

func (s *TestSuite) TestServiceLedgerSubtotals() {
	gdb, mock := newMockDB()
	db.NewDB(gdb)

	router := setupRouter()
	api := apiGroup(router)
	api.Use(testAuthMiddleware)
	ipdHandlers(api)

	mock.ExpectQuery(`SELECT (.+) FROM "daily_services"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "admission_id", "service_type", "service_name", "total_price", "is_deleted"}).
			AddRow(1, 3, "procedure", "Dressing", 200.0, false).
			AddRow(2, 3, "procedure", "Suture Removal", 300.0, false).
			AddRow(3, 3, "nursing", "Injection", 150.0, false))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/ipd/3/services", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	rbytes, err := io.ReadAll(w.Body)
	assert.Nil(s.T(), err)
	body := string(rbytes)
	assert.Equal(s.T(), 650.0, gjson.Get(body, "subtotal").Float())
	assert.Equal(s.T(), 500.0, gjson.Get(body, "subtotals_by_type.procedure").Float())
	assert.Equal(s.T(), 150.0, gjson.Get(body, "subtotals_by_type.nursing").Float())
	assert.Nil(s.T(), mock.ExpectationsWereMet())
}

func (s *TestSuite) TestAdmissionValidation() {
	router := setupRouter()
	api := apiGroup(router)
	api.Use(testAuthMiddleware)
	admissionHandlers(api)

	s.Run("Should reject an admission without required fields", func() {
		w := httptest.NewRecorder()
		body, _ := json.Marshal(map[string]any{"patient_id": 1})
		req, _ := http.NewRequest("POST", "/api/admissions", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		errMsg := gjson.Get(string(rbytes), "error").String()
		assert.NotEmpty(s.T(), errMsg)
	})

	s.Run("Should reject an unknown admission type", func() {
		w := httptest.NewRecorder()
		reqBody := types.CreateAdmissionRequestBody{
			PatientID:     1,
			AdmissionType: "DAYCARE",
			DoctorID:      2,
			AdmissionDate: "2026-01-10",
		}
		body, _ := json.Marshal(&reqBody)
		req, _ := http.NewRequest("POST", "/api/admissions", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a future admission date", func() {
		w := httptest.NewRecorder()
		nextWeek := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
		reqBody := types.CreateAdmissionRequestBody{
			PatientID:     1,
			AdmissionType: "IPD",
			DoctorID:      2,
			AdmissionDate: nextWeek,
		}
		body, _ := json.Marshal(&reqBody)
		req, _ := http.NewRequest("POST", "/api/admissions", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a transfer without a target room", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PATCH", "/api/admissions/5/transfer", strings.NewReader("{}"))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a cancellation without a reason", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/admissions/5", strings.NewReader("{}"))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject an invalid status filter", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/admissions?status=parked", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestLedgerValidation() {
	router := setupRouter()
	api := apiGroup(router)
	api.Use(testAuthMiddleware)
	ipdHandlers(api)

	s.Run("Should reject a service line with zero quantity", func() {
		w := httptest.NewRecorder()
		reqBody := types.CreateDailyServiceRequestBody{
			ServiceDate: "2026-02-01",
			ServiceType: "procedure",
			ServiceName: "Dressing",
			Quantity:    0,
			UnitPrice:   100,
		}
		body, _ := json.Marshal(&reqBody)
		req, _ := http.NewRequest("POST", "/api/ipd/3/services", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject an unknown ledger item type", func() {
		w := httptest.NewRecorder()
		body, _ := json.Marshal(map[string]any{
			"entry_date": "2026-02-01",
			"item_type":  "equipment",
			"item_name":  "IV Set",
			"quantity":   1,
			"unit_price": 40,
		})
		req, _ := http.NewRequest("POST", "/api/ipd/3/medicines", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a line removal without a reason", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/ipd/3/services/9", strings.NewReader("{}"))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestPaymentValidation() {
	router := setupRouter()
	api := apiGroup(router)
	api.Use(testAuthMiddleware)
	billingHandlers(api)

	s.Run("Should reject a zero payment", func() {
		w := httptest.NewRecorder()
		reqBody := types.AddPaymentRequestBody{
			PaymentType: "advance",
			Amount:      0,
		}
		body, _ := json.Marshal(&reqBody)
		req, _ := http.NewRequest("POST", "/api/admissions/5/payments", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject an unknown payment type", func() {
		w := httptest.NewRecorder()
		body, _ := json.Marshal(map[string]any{
			"payment_type": "gift",
			"amount":       100,
		})
		req, _ := http.NewRequest("POST", "/api/admissions/5/payments", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a discount above 100 percent", func() {
		w := httptest.NewRecorder()
		discount := 120.0
		reqBody := types.UpdateBillRequestBody{DiscountPercent: &discount}
		body, _ := json.Marshal(&reqBody)
		req, _ := http.NewRequest("PUT", "/api/admissions/5/bill", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestRoomValidation() {
	router := setupRouter()
	api := apiGroup(router)
	api.Use(testAuthMiddleware)
	roomHandlers(api)

	s.Run("Should reject setting a room to occupied by hand", func() {
		w := httptest.NewRecorder()
		reqBody := types.UpdateRoomStatusRequestBody{NewStatus: "occupied"}
		body, _ := json.Marshal(&reqBody)
		req, _ := http.NewRequest("PATCH", "/api/rooms/2/status", strings.NewReader(string(body)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a room without a number", func() {
		w := httptest.NewRecorder()
		body := fmt.Sprintf(`{"room_type_id": %d}`, 1)
		req, _ := http.NewRequest("POST", "/api/rooms", strings.NewReader(body))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a room type without a day rate", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/room-types", strings.NewReader(`{"name": "Suite"}`))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}

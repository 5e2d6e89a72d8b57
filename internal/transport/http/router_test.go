package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"github.com/yazedalasad/bloodbank/internal/donation"
	"github.com/yazedalasad/bloodbank/internal/donor"
	"github.com/yazedalasad/bloodbank/internal/inventory"
	"github.com/yazedalasad/bloodbank/internal/platform/middleware"
	"github.com/yazedalasad/bloodbank/internal/request"
	id "github.com/yazedalasad/bloodbank/pkg/domain"
)

const testSigningKey = "router-test-signing-key"

type RouterSuite struct {
	suite.Suite
	server    *httptest.Server
	donations *donation.InMemoryStore
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.donations = donation.NewInMemoryStore()

	donorStore := donor.NewInMemoryStore()
	donors := donor.NewService(donorStore)
	donations := donation.NewService(s.donations, donors)
	engine := inventory.NewEngine(s.donations)
	allocator := inventory.NewAllocator(donorStore, s.donations)
	requests := request.NewService(request.NewInMemoryStore(), request.NewInMemoryEmergencyStore(), engine)

	handler := NewHandler(logger, middleware.NewHMACValidator(testSigningKey),
		donors, donations, requests, allocator, s.donations)
	s.server = httptest.NewServer(NewRouter(handler))
}

func (s *RouterSuite) TearDownTest() {
	s.server.Close()
}

func (s *RouterSuite) token(role string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "user-1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSigningKey))
	s.Require().NoError(err)
	return signed
}

func (s *RouterSuite) do(method, path, role string, body any) *http.Response {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(role))
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *RouterSuite) decode(resp *http.Response, v any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func (s *RouterSuite) registerDonor(bloodType id.BloodType, nationalID string) donor.Donor {
	resp := s.do(http.MethodPost, "/api/v1/donors", middleware.RoleDoctor, donor.RegisterParams{
		NationalID:  nationalID,
		FirstName:   "Dana",
		LastName:    "Levi",
		DateOfBirth: time.Now().AddDate(-30, 0, 0),
		BloodType:   bloodType,
		PhoneNumber: "0521234567",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var d donor.Donor
	s.decode(resp, &d)
	return d
}

func (s *RouterSuite) TestHealthIsPublic() {
	resp, err := s.server.Client().Get(s.server.URL + "/health")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *RouterSuite) TestStaffEndpointsRequireDoctorRole() {
	resp := s.do(http.MethodGet, "/api/v1/donors", "", nil)
	resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/v1/donors", middleware.RolePatient, nil)
	resp.Body.Close()
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/v1/donors", middleware.RoleDoctor, nil)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *RouterSuite) TestDonorLifecycle() {
	d := s.registerDonor(id.APos, "123456789")

	s.Run("duplicate national id conflicts", func() {
		resp := s.do(http.MethodPost, "/api/v1/donors", middleware.RoleDoctor, donor.RegisterParams{
			NationalID:  "123456789",
			FirstName:   "Other",
			LastName:    "Person",
			DateOfBirth: time.Now().AddDate(-40, 0, 0),
			BloodType:   id.BPos,
		})
		resp.Body.Close()
		s.Equal(http.StatusConflict, resp.StatusCode)
	})

	s.Run("get by id", func() {
		resp := s.do(http.MethodGet, "/api/v1/donors/"+d.ID.String(), middleware.RoleDoctor, nil)
		s.Equal(http.StatusOK, resp.StatusCode)
		var profile struct {
			donor.Donor
			Age int `json:"age"`
		}
		s.decode(resp, &profile)
		s.Equal(d.ID, profile.ID)
		s.Equal(30, profile.Age)
	})

	s.Run("invalid id rejected", func() {
		resp := s.do(http.MethodGet, "/api/v1/donors/not-a-uuid", middleware.RoleDoctor, nil)
		resp.Body.Close()
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("validation failure", func() {
		resp := s.do(http.MethodPost, "/api/v1/donors", middleware.RoleDoctor, donor.RegisterParams{
			NationalID:  "12345",
			FirstName:   "Bad",
			LastName:    "ID",
			DateOfBirth: time.Now().AddDate(-30, 0, 0),
			BloodType:   id.APos,
		})
		resp.Body.Close()
		s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func (s *RouterSuite) TestDonationAndEligibility() {
	d := s.registerDonor(id.ONeg, "111111111")

	resp := s.do(http.MethodPost, "/api/v1/donations", middleware.RoleDoctor, donation.RecordParams{
		DonorID: d.ID,
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	var rec donation.Donation
	s.decode(resp, &rec)
	s.True(rec.Approved)
	s.Equal(id.ONeg, rec.BloodType)

	resp = s.do(http.MethodGet, "/api/v1/donors/"+d.ID.String()+"/eligibility", middleware.RoleDoctor, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var eligibility struct {
		CanDonate         bool `json:"can_donate"`
		DaysUntilEligible int  `json:"days_until_eligible"`
	}
	s.decode(resp, &eligibility)
	s.False(eligibility.CanDonate)
	s.Equal(donation.DeferralDays, eligibility.DaysUntilEligible)

	resp = s.do(http.MethodGet, "/api/v1/donors/"+d.ID.String()+"/donations", middleware.RoleDoctor, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var history []donation.Donation
	s.decode(resp, &history)
	s.Len(history, 1)
}

func (s *RouterSuite) TestRequestFulfillment() {
	d := s.registerDonor(id.APos, "222222222")
	resp := s.do(http.MethodPost, "/api/v1/donations", middleware.RoleDoctor, donation.RecordParams{
		DonorID: d.ID,
	})
	resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/v1/requests", middleware.RoleDoctor, request.SubmitParams{
		PatientName: "Amir Cohen",
		BloodType:   id.APos,
		Units:       1,
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	var view struct {
		request.BloodRequest
		Result *inventory.Result `json:"result"`
	}
	s.decode(resp, &view)
	s.True(view.Fulfilled)
	s.Require().NotNil(view.Result)
	s.Equal(450, view.Result.FulfilledML)
	s.Equal("user-1", view.RequesterID)

	s.Run("retry of fulfilled request conflicts", func() {
		resp := s.do(http.MethodPost, "/api/v1/requests/"+view.ID.String()+"/retry", middleware.RoleDoctor, nil)
		resp.Body.Close()
		s.Equal(http.StatusConflict, resp.StatusCode)
	})
}

func (s *RouterSuite) TestAnonymousEmergencyRequest() {
	resp := s.do(http.MethodPost, "/api/v1/emergency-requests", "", request.EmergencyParams{
		ContactName:  "Yael Peretz",
		ContactPhone: "0529876543",
		Units:        3,
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	var e request.EmergencyRequest
	s.decode(resp, &e)

	// Listing active emergencies needs staff credentials.
	resp = s.do(http.MethodGet, "/api/v1/emergency-requests", middleware.RoleDoctor, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var active []request.EmergencyRequest
	s.decode(resp, &active)
	s.Require().Len(active, 1)
	s.Equal(e.ID, active[0].ID)
}

func (s *RouterSuite) TestEmergencyAllocation() {
	s.registerDonor(id.ONeg, "333333333")
	s.registerDonor(id.ONeg, "444444444")

	resp := s.do(http.MethodPost, "/api/v1/emergency-allocations", middleware.RoleDoctor, map[string]int{"units": 2})
	s.Equal(http.StatusCreated, resp.StatusCode)
	var allocation inventory.Allocation
	s.decode(resp, &allocation)
	s.Len(allocation.Assignments, 2)
	s.Equal(900, allocation.VolumeML)

	resp = s.do(http.MethodPost, "/api/v1/emergency-allocations", middleware.RoleDoctor, map[string]int{"units": 5})
	resp.Body.Close()
	s.Equal(http.StatusConflict, resp.StatusCode)
}

func (s *RouterSuite) TestStockReport() {
	d := s.registerDonor(id.BPos, "555555555")
	resp := s.do(http.MethodPost, "/api/v1/donations", middleware.RoleDoctor, donation.RecordParams{
		DonorID:  d.ID,
		VolumeML: 500,
	})
	resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/v1/inventory/report", middleware.RoleDoctor, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var report inventory.StockReport
	s.decode(resp, &report)
	s.Equal(500, report.TotalVolumeML)
	s.Len(report.Levels, 8)
}

func (s *RouterSuite) TestLocateDonors() {
	s.registerDonor(id.ONeg, "666666666")

	resp := s.do(http.MethodGet, "/api/v1/donors/locate?blood_type=AB%2B", middleware.RoleDoctor, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var hits []donor.AvailableDonor
	s.decode(resp, &hits)
	s.Require().Len(hits, 1)
	s.True(hits[0].CanDonateNow)
}

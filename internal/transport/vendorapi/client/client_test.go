package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
)

type HTTPClientTestSuite struct {
	suite.Suite
}

func TestHTTPClientSuite(t *testing.T) {
	suite.Run(t, new(HTTPClientTestSuite))
}

// newVendorStub поднимает httptest сервер, отвечающий handler-ом, и возвращает клиента,
// настроенного на него.
func (s *HTTPClientTestSuite) newVendorStub(handler http.HandlerFunc) (HTTPClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	c := New(Config{
		BaseURL:     server.URL,
		AccountName: "tester",
		APIKey:      "key123",
	})
	return c, server
}

func (s *HTTPClientTestSuite) TestLeaseNumber() {
	c, server := s.newVendorStub(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(routeLeaseNumber, r.URL.Path)
		s.Equal("tester", r.URL.Query().Get("name"))
		s.Equal("key123", r.URL.Query().Get("ApiKey"))
		s.Equal("EG", r.URL.Query().Get("cuy"))
		s.Equal("1001", r.URL.Query().Get("pid"))
		s.Equal("1", r.URL.Query().Get("num"))
		s.NotEmpty(r.Header.Get("User-Agent"))

		s.writeJSON(w, apiResponse{Code: 200, Msg: "Success", Data: json.RawMessage(`"201112223344"`)})
	})
	defer server.Close()

	phoneNumber, err := c.LeaseNumber(context.Background(), "EG", "1001")
	s.Require().NoError(err)
	s.Equal("201112223344", phoneNumber)
}

func (s *HTTPClientTestSuite) TestLeaseNumberNumericPayload() {
	// Вендор не постоянен в типах: номер может прийти и числом.
	c, server := s.newVendorStub(func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, apiResponse{Code: 200, Msg: "Success", Data: json.RawMessage(`201112223344`)})
	})
	defer server.Close()

	phoneNumber, err := c.LeaseNumber(context.Background(), "EG", "1001")
	s.Require().NoError(err)
	s.Equal("201112223344", phoneNumber)
}

func (s *HTTPClientTestSuite) TestLeaseNumberRejected() {
	c, server := s.newVendorStub(func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, apiResponse{Code: 405, Msg: "no numbers available", Data: json.RawMessage(`null`)})
	})
	defer server.Close()

	_, err := c.LeaseNumber(context.Background(), "EG", "1001")

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(405, apiErr.Code)
	s.Equal("no numbers available", apiErr.Msg)
}

func (s *HTTPClientTestSuite) TestLeaseNumberVendorDown() {
	c, server := s.newVendorStub(func(_ http.ResponseWriter, _ *http.Request) {})
	server.Close()

	_, err := c.LeaseNumber(context.Background(), "EG", "1001")
	s.Require().ErrorIs(err, ErrUnavailable)
}

func (s *HTTPClientTestSuite) TestLeaseNumberBadHTTPStatus() {
	c, server := s.newVendorStub(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer server.Close()

	_, err := c.LeaseNumber(context.Background(), "EG", "1001")
	s.Require().ErrorIs(err, ErrUnavailable)
}

func (s *HTTPClientTestSuite) TestPollCode() {
	c, server := s.newVendorStub(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(routePollCode, r.URL.Path)
		s.Equal("201112223344", r.URL.Query().Get("pn"))

		s.writeJSON(w, apiResponse{Code: 200, Msg: "Success", Data: json.RawMessage(`"778899"`)})
	})
	defer server.Close()

	code, received, err := c.PollCode(context.Background(), "201112223344", "1001")
	s.Require().NoError(err)
	s.True(received)
	s.Equal("778899", code)
}

func (s *HTTPClientTestSuite) TestPollCodePlaceholderMeansNotReceived() {
	// Заглушка вендора вместо кода: трактуется как "кода еще нет", не как настоящий код.
	c, server := s.newVendorStub(func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, apiResponse{Code: 200, Msg: "Success", Data: json.RawMessage(`"123456"`)})
	})
	defer server.Close()

	code, received, err := c.PollCode(context.Background(), "201112223344", "1001")
	s.Require().NoError(err)
	s.False(received)
	s.Empty(code)
}

func (s *HTTPClientTestSuite) TestPollCodeNotReadyOnErrorCode() {
	c, server := s.newVendorStub(func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, apiResponse{Code: 405, Msg: "msg is not received", Data: json.RawMessage(`null`)})
	})
	defer server.Close()

	code, received, err := c.PollCode(context.Background(), "201112223344", "1001")
	s.Require().NoError(err)
	s.False(received)
	s.Empty(code)
}

func (s *HTTPClientTestSuite) TestBlacklist() {
	cases := []struct {
		name    string
		resp    apiResponse
		wantErr bool
	}{
		{
			name: "data is one",
			resp: apiResponse{Code: 200, Msg: "ok", Data: json.RawMessage(`1`)},
		},
		{
			name: "msg is success",
			resp: apiResponse{Code: 200, Msg: "Success", Data: json.RawMessage(`null`)},
		},
		{
			name: "already blacklisted",
			resp: apiResponse{Code: 405, Msg: "Number already blacklisted", Data: json.RawMessage(`null`)},
		},
		{
			name:    "rejected",
			resp:    apiResponse{Code: 405, Msg: "unknown number", Data: json.RawMessage(`null`)},
			wantErr: true,
		},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			c, server := s.newVendorStub(func(w http.ResponseWriter, r *http.Request) {
				s.Equal(routeBlacklist, r.URL.Path)
				s.writeJSON(w, t.resp)
			})
			defer server.Close()

			err := c.Blacklist(context.Background(), "201112223344", "1001")
			if t.wantErr {
				var apiErr *APIError
				s.Require().ErrorAs(err, &apiErr)
			} else {
				s.Require().NoError(err)
			}
		})
	}
}

func (s *HTTPClientTestSuite) TestCountries() {
	payload := `[{"country":"EG","num":42}]`

	c, server := s.newVendorStub(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(routeCountries, r.URL.Path)
		s.writeJSON(w, apiResponse{Code: 200, Msg: "Success", Data: json.RawMessage(payload)})
	})
	defer server.Close()

	countries, err := c.Countries(context.Background(), "1001")
	s.Require().NoError(err)
	s.JSONEq(payload, string(countries))
}

func (s *HTTPClientTestSuite) writeJSON(w http.ResponseWriter, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	s.Require().NoError(json.NewEncoder(w).Encode(resp))
}

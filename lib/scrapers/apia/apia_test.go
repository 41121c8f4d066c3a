package apia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cedulero-backend/lib/sessionstore"
	"cedulero-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func testSession() sessionstore.Session {
	return sessionstore.Session{
		TabID:      "tab-1",
		TokenID:    "token-1",
		Timestamp1: "1717000000000",
		Timestamp2: "1717000000001",
		Cookie:     "JSESSIONID=abc123",
		Datetime:   time.Now(),
	}
}

func TestProbe(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/apia")
	defer cleanup()

	session := testSession()
	var submittedCI string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, session.Cookie, r.Header.Get("cookie"))
		require.Equal(t, session.TabID, r.URL.Query().Get("tabId"))
		require.Equal(t, session.TokenID, r.URL.Query().Get("tokenId"))

		switch r.URL.Query().Get("action") {
		case "processFieldSubmit":
			// exactly one timestamp per surface
			require.Equal(t, []string{session.Timestamp1}, r.URL.Query()["timestamp"])
			require.NoError(t, r.ParseForm())
			require.Equal(t, []string{session.Timestamp2}, r.PostForm["timestamp"])
			submittedCI = r.PostFormValue("value")
			w.WriteHeader(http.StatusOK)
		case "fireFieldEvent":
			require.Equal(t, "forms~0", r.URL.Query().Get("currentTab"))
			w.Write([]byte("<html>\n" + markerLine("Juan", "Sosa", "03/04/1970") + "\n</html>"))
		default:
			t.Errorf("unexpected action %q", r.URL.Query().Get("action"))
		}
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL})
	raw, err := client.Probe(context.Background(), "12345672", session)
	require.NoError(t, err)
	require.Equal(t, "12345672", submittedCI)

	record, err := Extract("12345672", raw, FieldLayout{GivenNames: 1, Surnames: 2, BirthDate: 3})
	require.NoError(t, err)
	require.Equal(t, "Juan", record.GivenNames)
	require.Equal(t, "Sosa", record.Surnames)
}

func TestProbeSubmitFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "processFieldSubmit", r.URL.Query().Get("action"))
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL})
	_, err := client.Probe(context.Background(), "12345672", testSession())
	require.ErrorIs(t, err, ErrSubmitFailed)
}

func TestProbeFetchFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") == "processFieldSubmit" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL})
	_, err := client.Probe(context.Background(), "12345672", testSession())
	require.ErrorIs(t, err, ErrFetchFailed)
}

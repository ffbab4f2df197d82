package github_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/runfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/runfetch/pkg/domain/model"
	githubinfra "github.com/m-mizutani/runfetch/pkg/infra/github"
)

// newFakeAPI starts a fake GitHub REST API serving a single repository
func newFakeAPI(t *testing.T, mux *http.ServeMux) *httptest.Server {
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newClient(t *testing.T, server *httptest.Server) interfaces.GitHubClient {
	client, err := githubinfra.NewClient(context.Background(),
		githubinfra.WithBaseURL(server.URL),
		githubinfra.WithHTTPClient(server.Client()),
	)
	gt.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func TestClient_ListWorkflows_Pagination(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/actions/workflows", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/owner/repo/actions/workflows?page=2>; rel="next"`, server.URL))
			writeJSON(w, `{"total_count":2,"workflows":[{"id":1,"name":"Lint","path":".github/workflows/lint.yml"}]}`)
		default:
			writeJSON(w, `{"total_count":2,"workflows":[{"id":2,"name":"Build","path":".github/workflows/build.yml"}]}`)
		}
	})
	server = newFakeAPI(t, mux)

	workflows, err := newClient(t, server).ListWorkflows(context.Background(), "owner", "repo")
	gt.NoError(t, err)
	gt.A(t, workflows).Length(2)
	gt.Value(t, workflows[1].ID).Equal(int64(2))
	gt.Value(t, workflows[1].Path).Equal(".github/workflows/build.yml")
}

func TestClient_ListWorkflowRuns_Filter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/actions/workflows/42/runs", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gt.Value(t, q.Get("status")).Equal("success")
		gt.Value(t, q.Get("head_sha")).Equal("def456")
		gt.Value(t, q.Get("per_page")).Equal("1")
		writeJSON(w, `{"total_count":1,"workflow_runs":[{"id":7,"status":"completed","conclusion":"success","head_sha":"def456"}]}`)
	})
	server := newFakeAPI(t, mux)

	runs, err := newClient(t, server).ListWorkflowRuns(context.Background(), "owner", "repo", 42, model.RunFilter{
		Status:  "success",
		HeadSHA: "def456",
		PerPage: 1,
	})
	gt.NoError(t, err)
	gt.A(t, runs).Length(1)
	gt.Value(t, runs[0].ID).Equal(int64(7))
	gt.Value(t, runs[0].HeadSHA).Equal("def456")
	gt.Value(t, runs[0].Succeeded()).Equal(true)
}

func TestClient_ListWorkflowRuns_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/actions/workflows/42/runs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, `{"message":"boom"}`)
	})
	server := newFakeAPI(t, mux)

	runs, err := newClient(t, server).ListWorkflowRuns(context.Background(), "owner", "repo", 42, model.RunFilter{PerPage: 1})
	gt.Error(t, err)
	gt.A(t, runs).Length(0)
	gt.String(t, err.Error()).Contains("failed to list workflow runs")
}

func TestClient_ListRunArtifacts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/actions/runs/7/artifacts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"total_count":2,"artifacts":[
			{"id":100,"name":"binaries","size_in_bytes":2048,"expired":false,"workflow_run":{"id":7,"head_sha":"def456"}},
			{"id":101,"name":"coverage","size_in_bytes":10,"expired":true,"workflow_run":{"id":7,"head_sha":"def456"}}
		]}`)
	})
	server := newFakeAPI(t, mux)

	artifacts, err := newClient(t, server).ListRunArtifacts(context.Background(), "owner", "repo", 7)
	gt.NoError(t, err)
	gt.A(t, artifacts).Length(2)
	gt.Value(t, artifacts[0].Name).Equal("binaries")
	gt.Value(t, artifacts[0].SizeInBytes).Equal(int64(2048))
	gt.Value(t, artifacts[1].Expired).Equal(true)
}

func TestClient_DownloadArtifact(t *testing.T) {
	zipContent := []byte("fake zip content")

	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/actions/artifacts/100/zip", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/blob/100.zip?sig=xyz", http.StatusFound)
	})
	mux.HandleFunc("GET /blob/100.zip", func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.Header.Get("Authorization")).Equal("")
		gt.Value(t, r.URL.Query().Get("sig")).Equal("xyz")
		w.Header().Set("Content-Type", "application/zip")
		w.Write(zipContent)
	})
	server = newFakeAPI(t, mux)

	data, err := newClient(t, server).DownloadArtifact(context.Background(), "owner", "repo", 100)
	gt.NoError(t, err)
	gt.Value(t, string(data)).Equal(string(zipContent))
}

func TestClient_ListRunArtifacts_Pagination(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/actions/runs/7/artifacts", func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Query().Get("per_page")).Equal("100")
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/owner/repo/actions/runs/7/artifacts?page=2>; rel="next"`, server.URL))
			writeJSON(w, `{"total_count":2,"artifacts":[{"id":100,"name":"coverage"}]}`)
		default:
			writeJSON(w, `{"total_count":2,"artifacts":[{"id":101,"name":"binaries"}]}`)
		}
	})
	server = newFakeAPI(t, mux)

	artifacts, err := newClient(t, server).ListRunArtifacts(context.Background(), "owner", "repo", 7)
	gt.NoError(t, err)
	gt.A(t, artifacts).Length(2)
	gt.Value(t, model.FindArtifact(artifacts, "binaries").ID).Equal(int64(101))
}

func TestClient_DownloadArtifact_TokenNotForwarded(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/actions/artifacts/100/zip", func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.Header.Get("Authorization")).Equal("Bearer test-token")
		http.Redirect(w, r, server.URL+"/blob/100.zip?sig=xyz", http.StatusFound)
	})
	mux.HandleFunc("GET /blob/100.zip", func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.Header.Get("Authorization")).Equal("")
		w.Write([]byte("zip"))
	})
	server = newFakeAPI(t, mux)

	client, err := githubinfra.NewClient(context.Background(),
		githubinfra.WithBaseURL(server.URL),
		githubinfra.WithToken("test-token"),
	)
	gt.NoError(t, err)

	data, err := client.DownloadArtifact(context.Background(), "owner", "repo", 100)
	gt.NoError(t, err)
	gt.Value(t, string(data)).Equal("zip")
}

func TestClient_DownloadArtifact_BlobError(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/actions/artifacts/100/zip", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/blob/100.zip", http.StatusFound)
	})
	mux.HandleFunc("GET /blob/100.zip", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	server = newFakeAPI(t, mux)

	data, err := newClient(t, server).DownloadArtifact(context.Background(), "owner", "repo", 100)
	gt.Error(t, err)
	gt.A(t, data).Length(0)
	gt.String(t, err.Error()).Contains("unexpected status code")
}

func TestClient_GetLatestRelease(t *testing.T) {
	t.Run("lightweight tag", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /repos/owner/repo/releases/latest", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, `{"id":1,"tag_name":"v1.2.0","name":"Release 1.2.0"}`)
		})
		mux.HandleFunc("GET /repos/owner/repo/git/ref/tags/v1.2.0", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, `{"ref":"refs/tags/v1.2.0","object":{"type":"commit","sha":"def456"}}`)
		})
		server := newFakeAPI(t, mux)

		release, err := newClient(t, server).GetLatestRelease(context.Background(), "owner", "repo")
		gt.NoError(t, err)
		gt.Value(t, release.TagName).Equal("v1.2.0")
		gt.Value(t, release.Name).Equal("Release 1.2.0")
		gt.Value(t, release.CommitSHA).Equal("def456")
	})

	t.Run("annotated tag is peeled", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /repos/owner/repo/releases/latest", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, `{"id":1,"tag_name":"v1.2.0"}`)
		})
		mux.HandleFunc("GET /repos/owner/repo/git/ref/tags/v1.2.0", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, `{"ref":"refs/tags/v1.2.0","object":{"type":"tag","sha":"tagobj1"}}`)
		})
		mux.HandleFunc("GET /repos/owner/repo/git/tags/tagobj1", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, `{"sha":"tagobj1","tag":"v1.2.0","object":{"type":"commit","sha":"def456"}}`)
		})
		server := newFakeAPI(t, mux)

		release, err := newClient(t, server).GetLatestRelease(context.Background(), "owner", "repo")
		gt.NoError(t, err)
		gt.Value(t, release.CommitSHA).Equal("def456")
	})

	t.Run("no release", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /repos/owner/repo/releases/latest", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, `{"message":"Not Found"}`)
		})
		server := newFakeAPI(t, mux)

		release, err := newClient(t, server).GetLatestRelease(context.Background(), "owner", "repo")
		gt.Error(t, err)
		gt.Value(t, release).Nil()
		gt.Value(t, errors.Is(err, model.ErrNotFound)).Equal(true)
	})
}

func TestClient_NewClient_WithApp(t *testing.T) {
	// This test requires GitHub App credentials from environment variables
	appID := os.Getenv("TEST_GITHUB_APP_ID")
	installationID := os.Getenv("TEST_GITHUB_INSTALLATION_ID")
	privateKey := os.Getenv("TEST_GITHUB_PRIVATE_KEY")

	if appID == "" || installationID == "" || privateKey == "" {
		t.Skip("Test GitHub App credentials not provided via environment variables")
	}

	appIDInt, err := strconv.ParseInt(appID, 10, 64)
	gt.NoError(t, err)

	installationIDInt, err := strconv.ParseInt(installationID, 10, 64)
	gt.NoError(t, err)

	client, err := githubinfra.NewClient(context.Background(),
		githubinfra.WithApp(appIDInt, installationIDInt, []byte(privateKey)),
	)
	gt.NoError(t, err)
	gt.Value(t, client).NotNil()
}

func TestClient_NewClient_InvalidAppKey(t *testing.T) {
	client, err := githubinfra.NewClient(context.Background(),
		githubinfra.WithApp(1, 2, []byte("not a pem key")),
	)
	gt.Error(t, err)
	gt.Value(t, client).Nil()
}

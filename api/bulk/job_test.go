package bulk

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/sfbulk/api"
)

func TestCreateJob(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/services/data/v59.0/jobs/ingest/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "750xx",
			"operation": "upsert",
			"object": "Account",
			"createdById": "005xx",
			"createdDate": "2024-01-15T10:30:00.000+0000",
			"systemModstamp": "2024-01-15T10:30:00.000+0000",
			"state": "Open",
			"externalIdFieldName": "Ext__c",
			"concurrencyMode": "Parallel",
			"contentType": "CSV",
			"apiVersion": 59.0,
			"lineEnding": "CRLF",
			"columnDelimiter": "COMMA"
		}`))
	})

	job, err := client.CreateJob(context.Background(), "Account", "Ext__c")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"object":              "Account",
		"externalIdFieldName": "Ext__c",
		"contentType":         "CSV",
		"operation":           "upsert",
		"lineEnding":          "CRLF",
	}, got)

	assert.Equal(t, "750xx", job.JobID)
	assert.Equal(t, StateOpen, job.Status)
	assert.Equal(t, OperationUpsert, job.Operation)
	assert.Equal(t, "Account", job.Object)
	assert.Equal(t, "Ext__c", job.ExternalIDFieldName)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), job.CreatedDate.UTC())
	assert.InDelta(t, 59.0, job.APIVersion, 0.001)
}

func TestCreateJob_Options(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"750xx","state":"Open"}`))
	})

	_, err := client.CreateJob(context.Background(), "Contact", "",
		WithOperation(OperationInsert),
		WithLineEnding(LineEndingLF),
		WithColumnDelimiter(DelimiterPipe))
	require.NoError(t, err)

	assert.Equal(t, "Contact", got["object"])
	assert.Equal(t, "insert", got["operation"])
	assert.Equal(t, "LF", got["lineEnding"])
	assert.Equal(t, "PIPE", got["columnDelimiter"])
	assert.NotContains(t, got, "externalIdFieldName")
}

func TestCreateJob_ObjectRequired(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.CreateJob(context.Background(), "", "Ext__c")
	assert.ErrorIs(t, err, ErrObjectRequired)
}

func TestCreateJob_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`[{"errorCode":"INVALIDJOB","message":"InvalidJob : Field name not found : Ext__c"}]`))
	})

	_, err := client.CreateJob(context.Background(), "Account", "Ext__c")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrRemoteRequestFailed)
	assert.True(t, api.IsBadRequest(err))
	assert.Contains(t, err.Error(), "INVALIDJOB")
}

func TestCreateJob_MissingID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"state":"Open"}`))
	})

	_, err := client.CreateJob(context.Background(), "Account", "Ext__c")
	assert.ErrorIs(t, err, api.ErrMalformedResponse)
}

func TestUploadBatch(t *testing.T) {
	payload := []byte("Name,Ext__c\r\nAcme,1\r\n")
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/services/data/v59.0/jobs/ingest/750xx/batches/", r.URL.Path)
		assert.Equal(t, "text/csv", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, payload, body)

		w.WriteHeader(http.StatusCreated)
	})

	err := client.UploadBatch(context.Background(), "750xx", payload)
	require.NoError(t, err)
}

func TestUploadBatch_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`[{"errorCode":"INVALIDJOBSTATE","message":"Job is not open"}]`))
	})

	err := client.UploadBatch(context.Background(), "750xx", []byte("a\r\n"))
	assert.ErrorIs(t, err, api.ErrRemoteRequestFailed)
}

func TestUploadRecords(t *testing.T) {
	type account struct {
		Name  string
		ExtID int `csv:"Ext__c"`
	}

	var body string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		body = string(b)
		w.WriteHeader(http.StatusCreated)
	})

	err := client.UploadRecords(context.Background(), "750xx", []account{{"Acme", 1}, {"Globex", 2}})
	require.NoError(t, err)
	assert.Equal(t, "Name,Ext__c\r\nAcme,1\r\nGlobex,2\r\n", body)
}

func TestUploadRecords_EncodeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})

	err := client.UploadRecords(context.Background(), "750xx", "not a slice")
	assert.Error(t, err)
}

func TestSetState(t *testing.T) {
	tests := []struct {
		name  string
		call  func(c *Client) (*JobStatus, error)
		state State
	}{
		{"start", func(c *Client) (*JobStatus, error) { return c.StartJob(context.Background(), "750xx") }, StateUploadComplete},
		{"abort", func(c *Client) (*JobStatus, error) { return c.AbortJob(context.Background(), "750xx") }, StateAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPatch, r.Method)
				assert.Equal(t, "/services/data/v59.0/jobs/ingest/750xx", r.URL.Path)

				var req map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, map[string]string{"state": string(tt.state)}, req)

				_, _ = w.Write([]byte(`{"id":"750xx","state":"` + string(tt.state) + `"}`))
			})

			job, err := tt.call(client)
			require.NoError(t, err)
			assert.Equal(t, tt.state, job.Status)
		})
	}
}

func TestSetState_IllegalTransition(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`[{"errorCode":"INVALIDJOBSTATE","message":"Aborting already Completed Job not allowed"}]`))
	})

	job, err := client.AbortJob(context.Background(), "750xx")
	assert.Nil(t, job)
	assert.ErrorIs(t, err, api.ErrRemoteRequestFailed)
	assert.Equal(t, http.StatusBadRequest, api.StatusCode(err))
}

func TestGetStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"id":"750xx","state":"JobComplete","numberRecordsProcessed":10,"numberRecordsFailed":2}`))
	})

	job, err := client.GetStatus(context.Background(), "750xx")
	require.NoError(t, err)
	assert.Equal(t, StateJobComplete, job.Status)
	assert.Equal(t, 10, job.NumberRecordsProcessed)
	assert.Equal(t, 2, job.NumberRecordsFailed)
}

func TestGetStatus_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`[{"errorCode":"NOT_FOUND","message":"The requested resource does not exist"}]`))
	})

	job, err := client.GetStatus(context.Background(), "750missing")
	assert.Nil(t, job)
	assert.ErrorIs(t, err, api.ErrRemoteRequestFailed)
	assert.True(t, api.IsNotFound(err))
}

func TestDeleteJob(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/services/data/v59.0/jobs/ingest/750xx", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteJob(context.Background(), "750xx"))
}

func TestJobIDRequired(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})
	ctx := context.Background()

	_, err := client.GetStatus(ctx, "")
	assert.ErrorIs(t, err, ErrJobIDRequired)
	_, err = client.StartJob(ctx, "")
	assert.ErrorIs(t, err, ErrJobIDRequired)
	_, err = client.AbortJob(ctx, "")
	assert.ErrorIs(t, err, ErrJobIDRequired)
	assert.ErrorIs(t, client.UploadBatch(ctx, "", []byte("a")), ErrJobIDRequired)
	assert.ErrorIs(t, client.DeleteJob(ctx, ""), ErrJobIDRequired)
	_, err = client.GetFailedResults(ctx, "")
	assert.ErrorIs(t, err, ErrJobIDRequired)
}

func TestListJobs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/data/v59.0/jobs/ingest/", r.URL.Path)
		_, _ = w.Write([]byte(`{"done":true,"records":[{"id":"750a","state":"Open"},{"id":"750b","state":"Aborted"}]}`))
	})

	resp, err := client.ListJobs(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.Done)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "750b", resp.Records[1].JobID)
}

func TestGetResults(t *testing.T) {
	tests := []struct {
		name string
		path string
		call func(c *Client) ([]byte, error)
	}{
		{"successful", "successfulResults", func(c *Client) ([]byte, error) {
			return c.GetSuccessfulResults(context.Background(), "750xx")
		}},
		{"failed", "failedResults", func(c *Client) ([]byte, error) {
			return c.GetFailedResults(context.Background(), "750xx")
		}},
		{"unprocessed", "unprocessedrecords", func(c *Client) ([]byte, error) {
			return c.GetUnprocessedRecords(context.Background(), "750xx")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/services/data/v59.0/jobs/ingest/750xx/"+tt.path+"/", r.URL.Path)
				assert.Equal(t, "text/csv", r.Header.Get("Accept"))
				_, _ = w.Write([]byte("sf__Id,Name\n001xx,Acme\n"))
			})

			data, err := tt.call(client)
			require.NoError(t, err)
			assert.Equal(t, "sf__Id,Name\n001xx,Acme\n", string(data))
		})
	}
}

package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/client"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

func TestFinishNoInputReturns202(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/finish", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := client.NewClient(client.WithBaseURL(srv.URL))
	input, ok, err := c.Finish(context.Background(), types.Accept)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, types.Input{}, input)
}

func TestFinishAdvanceStateUsesMsgSenderAlias(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"request_type": "advance_state",
			"data": map[string]any{
				"metadata": map[string]any{
					"msg_sender":   "0x237f8dd094c0e47f4236f12b4fa01d6dae89fb87",
					"block_number": 10,
					"timestamp":    1000,
					"input_index":  3,
				},
				"payload": "0xdeadbeef",
			},
		})
	}))
	defer srv.Close()

	c := client.NewClient(client.WithBaseURL(srv.URL))
	input, ok, err := c.Finish(context.Background(), types.Accept)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.InputAdvance, input.Kind)
	assert.Equal(t, uint64(3), input.Metadata.InputIndex)
	assert.Equal(t, "0x237f8dd094c0e47f4236f12b4fa01d6dae89fb87", input.Metadata.Sender.String())
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, input.Payload)
}

func TestFinishInspectState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"request_type": "inspect_state",
			"data":         map[string]any{"payload": "0x1234"},
		})
	}))
	defer srv.Close()

	c := client.NewClient(client.WithBaseURL(srv.URL))
	input, ok, err := c.Finish(context.Background(), types.Accept)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.InputInspect, input.Kind)
	assert.Equal(t, []byte{0x12, 0x34}, input.Payload)
}

func TestSendVoucherReturnsIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/voucher", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0xdead", body["payload"][:6])
		_ = json.NewEncoder(w).Encode(map[string]int{"index": 7})
	}))
	defer srv.Close()

	c := client.NewClient(client.WithBaseURL(srv.URL))
	idx, err := c.SendVoucher(context.Background(), types.ZeroAddress, []byte{0xde, 0xad})
	require.NoError(t, err)
	assert.Equal(t, 7, idx)
}

func TestDoReturnsHTTPErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := client.NewClient(client.WithBaseURL(srv.URL))
	err := c.SendReport(context.Background(), []byte("x"))
	require.Error(t, err)
	var httpErr *client.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, "report", httpErr.Route)
}

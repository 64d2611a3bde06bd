package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// rpcHandler answers a decoded request with a result or an error object.
type rpcHandler func(t *testing.T, req rpcRequest) (result interface{}, rpcErr map[string]interface{})

func newRPCServer(t *testing.T, handler rpcHandler) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}

		result, rpcErr := handler(t, req)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHTTPClient_GetLatestBlockhash(t *testing.T) {
	server := newRPCServer(t, func(t *testing.T, req rpcRequest) (interface{}, map[string]interface{}) {
		if req.Method != "getLatestBlockhash" {
			t.Errorf("expected method getLatestBlockhash, got %s", req.Method)
		}
		cfg, _ := req.Params[0].(map[string]interface{})
		if cfg["commitment"] != "confirmed" {
			t.Errorf("expected confirmed commitment, got %v", cfg["commitment"])
		}
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 10},
			"value": map[string]interface{}{
				"blockhash":            "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
				"lastValidBlockHeight": 3090,
			},
		}, nil
	})

	client := NewHTTPClient(server.URL)
	bh, err := client.GetLatestBlockhash(context.Background())
	if err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}

	if bh.Blockhash != "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N" {
		t.Errorf("unexpected blockhash %s", bh.Blockhash)
	}
	if bh.LastValidBlockHeight != 3090 {
		t.Errorf("expected lastValidBlockHeight 3090, got %d", bh.LastValidBlockHeight)
	}
}

func TestHTTPClient_GetMinimumBalanceForRentExemption(t *testing.T) {
	server := newRPCServer(t, func(t *testing.T, req rpcRequest) (interface{}, map[string]interface{}) {
		if req.Method != "getMinimumBalanceForRentExemption" {
			t.Errorf("unexpected method %s", req.Method)
		}
		if size, _ := req.Params[0].(float64); size != 82 {
			t.Errorf("expected size 82, got %v", req.Params[0])
		}
		return uint64(1461600), nil
	})

	client := NewHTTPClient(server.URL)
	rent, err := client.GetMinimumBalanceForRentExemption(context.Background(), 82)
	if err != nil {
		t.Fatalf("GetMinimumBalanceForRentExemption: %v", err)
	}
	if rent != 1461600 {
		t.Errorf("expected 1461600, got %d", rent)
	}
}

func TestHTTPClient_SendTransaction(t *testing.T) {
	raw := []byte{1, 2, 3, 4}

	server := newRPCServer(t, func(t *testing.T, req rpcRequest) (interface{}, map[string]interface{}) {
		if req.Method != "sendTransaction" {
			t.Errorf("unexpected method %s", req.Method)
		}
		if req.Params[0] != base64.StdEncoding.EncodeToString(raw) {
			t.Errorf("unexpected payload %v", req.Params[0])
		}
		cfg, _ := req.Params[1].(map[string]interface{})
		if cfg["encoding"] != "base64" {
			t.Errorf("expected base64 encoding, got %v", cfg["encoding"])
		}
		if cfg["preflightCommitment"] != "finalized" {
			t.Errorf("expected finalized preflight, got %v", cfg["preflightCommitment"])
		}
		return "txsig", nil
	})

	client := NewHTTPClient(server.URL, WithCommitment(CommitmentFinalized))
	sig, err := client.SendTransaction(context.Background(), raw)
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if sig != "txsig" {
		t.Errorf("expected txsig, got %s", sig)
	}
}

func TestHTTPClient_GetSignatureStatuses(t *testing.T) {
	server := newRPCServer(t, func(t *testing.T, req rpcRequest) (interface{}, map[string]interface{}) {
		if req.Method != "getSignatureStatuses" {
			t.Errorf("unexpected method %s", req.Method)
		}
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 82},
			"value": []interface{}{
				map[string]interface{}{
					"slot":               72,
					"confirmations":      10,
					"err":                nil,
					"confirmationStatus": "confirmed",
				},
				nil,
				map[string]interface{}{
					"slot":               48,
					"confirmations":      nil,
					"err":                map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
					"confirmationStatus": "finalized",
				},
			},
		}, nil
	})

	client := NewHTTPClient(server.URL)
	statuses, err := client.GetSignatureStatuses(context.Background(), "a", "b", "c")
	if err != nil {
		t.Fatalf("GetSignatureStatuses: %v", err)
	}

	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if statuses[0] == nil || statuses[0].Slot != 72 || !statuses[0].Satisfies(CommitmentConfirmed) {
		t.Errorf("unexpected first status %+v", statuses[0])
	}
	if statuses[1] != nil {
		t.Errorf("expected nil for unknown signature, got %+v", statuses[1])
	}
	if statuses[2] == nil || !statuses[2].Failed() {
		t.Errorf("expected failed third status, got %+v", statuses[2])
	}
}

func TestHTTPClient_RequestAirdrop(t *testing.T) {
	server := newRPCServer(t, func(t *testing.T, req rpcRequest) (interface{}, map[string]interface{}) {
		if req.Method != "requestAirdrop" {
			t.Errorf("unexpected method %s", req.Method)
		}
		if req.Params[0] != "payer" {
			t.Errorf("unexpected recipient %v", req.Params[0])
		}
		if lamports, _ := req.Params[1].(float64); lamports != 2e9 {
			t.Errorf("expected 2e9 lamports, got %v", req.Params[1])
		}
		return "airdropsig", nil
	})

	client := NewHTTPClient(server.URL)
	sig, err := client.RequestAirdrop(context.Background(), "payer", 2_000_000_000)
	if err != nil {
		t.Fatalf("RequestAirdrop: %v", err)
	}
	if sig != "airdropsig" {
		t.Errorf("expected airdropsig, got %s", sig)
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  uint64(999),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	var observed []string
	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
		WithCallObserver(func(method string, _ time.Duration, err error) {
			if err != nil {
				t.Errorf("unexpected observed error: %v", err)
			}
			observed = append(observed, method)
		}),
	)

	rent, err := client.GetMinimumBalanceForRentExemption(context.Background(), 0)
	if err != nil {
		t.Fatalf("GetMinimumBalanceForRentExemption: %v", err)
	}

	if rent != 999 {
		t.Errorf("expected 999, got %d", rent)
	}

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}

	if len(observed) != 1 || observed[0] != "getMinimumBalanceForRentExemption" {
		t.Errorf("expected one observed call, got %v", observed)
	}
}

func TestHTTPClient_MaxRetriesExceeded(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(2),
		WithRetryDelay(time.Millisecond),
	)

	_, err := client.GetMinimumBalanceForRentExemption(context.Background(), 82)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_RequestAirdrop_NotResentAfterFailure(t *testing.T) {
	tests := []struct {
		name    string
		respond func(w http.ResponseWriter)
	}{
		{
			name:    "bad gateway",
			respond: func(w http.ResponseWriter) { w.WriteHeader(http.StatusBadGateway) },
		},
		{
			name: "unreadable body",
			respond: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if attempts.Add(1) == 1 {
					tt.respond(w)
					return
				}
				var req rpcRequest
				json.NewDecoder(r.Body).Decode(&req)
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]interface{}{
					"jsonrpc": "2.0",
					"id":      req.ID,
					"result":  "airdropsig",
				})
			}))
			defer server.Close()

			client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))
			_, err := client.RequestAirdrop(context.Background(), "payer", 2_000_000_000)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if attempts.Load() != 1 {
				t.Errorf("expected a single requestAirdrop, got %d", attempts.Load())
			}
		})
	}
}

func TestHTTPClient_RequestAirdrop_RetriesRateLimit(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  "airdropsig",
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))
	sig, err := client.RequestAirdrop(context.Background(), "payer", 2_000_000_000)
	if err != nil {
		t.Fatalf("RequestAirdrop: %v", err)
	}
	if sig != "airdropsig" {
		t.Errorf("expected airdropsig, got %s", sig)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithTimeout(20*time.Millisecond), WithMaxRetries(0))

	start := time.Now()
	_, err := client.GetLatestBlockhash(context.Background())
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("expected the client timeout to cut the call short, took %s", elapsed)
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	server := newRPCServer(t, func(t *testing.T, req rpcRequest) (interface{}, map[string]interface{}) {
		return nil, map[string]interface{}{
			"code":    -32600,
			"message": "Invalid Request",
		}
	})

	client := NewHTTPClient(server.URL)

	_, err := client.RequestAirdrop(context.Background(), "payer", 1)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %T", err)
	}

	if rpcErr.Code != -32600 {
		t.Errorf("expected code -32600, got %d", rpcErr.Code)
	}
}

func TestHTTPClient_GetAccountInfo(t *testing.T) {
	server := newRPCServer(t, func(t *testing.T, req rpcRequest) (interface{}, map[string]interface{}) {
		if req.Method != "getAccountInfo" {
			t.Errorf("expected method getAccountInfo, got %s", req.Method)
		}
		return map[string]interface{}{
			"value": map[string]interface{}{
				"lamports":   uint64(1000000),
				"owner":      "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
				"data":       []string{"SGVsbG8gV29ybGQ=", "base64"},
				"executable": false,
				"rentEpoch":  uint64(100),
			},
		}, nil
	})

	client := NewHTTPClient(server.URL)

	info, err := client.GetAccountInfo(context.Background(), "testpubkey")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}

	if info == nil {
		t.Fatal("expected account info, got nil")
	}

	if info.Lamports != 1000000 {
		t.Errorf("expected lamports 1000000, got %d", info.Lamports)
	}

	data, err := info.DataBytes()
	if err != nil {
		t.Fatalf("DataBytes: %v", err)
	}
	if string(data) != "Hello World" {
		t.Errorf("unexpected data: %q", data)
	}
}

func TestHTTPClient_GetAccountInfo_NotFound(t *testing.T) {
	server := newRPCServer(t, func(t *testing.T, req rpcRequest) (interface{}, map[string]interface{}) {
		return map[string]interface{}{"value": nil}, nil
	})

	client := NewHTTPClient(server.URL)

	info, err := client.GetAccountInfo(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}

	if info != nil {
		t.Errorf("expected nil for not found, got %+v", info)
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetLatestBlockhash(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

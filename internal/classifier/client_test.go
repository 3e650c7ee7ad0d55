package classifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"catat-worker/internal/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	endpoints := Endpoints{
		MetalText:    srv.URL + "/process_text_lm",
		MetalImage:   srv.URL + "/process_image_lm",
		ExpenseText:  srv.URL + "/process_expense_keuangan",
		ExpenseImage: srv.URL + "/process_image_expense_keuangan",
	}
	return NewClient(endpoints, 2*time.Second, nil, zap.NewNop()), srv
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func TestClassifyText_FlatExpense(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/process_expense_keuangan", r.URL.Path)
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "makan siang 30k", req.Text)
		writeJSON(w, http.StatusOK, `{"kategori":"Makan","transaksi":"Pengeluaran","nominal":30000,"tanggal":"2024-05-01","keterangan":"siang"}`)
	})

	resp, err := c.ClassifyText(context.Background(), models.FeatureGeneralExpense, "makan siang 30k")
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 1)
	got := resp.Transactions[0]
	assert.Equal(t, "Makan", got.Category)
	assert.Equal(t, "Pengeluaran", got.Label)
	assert.Equal(t, "30000", got.Amount)
	assert.Equal(t, "2024-05-01", got.Date)
	assert.Equal(t, "siang", got.Note)
}

func TestClassifyImage_TransactionsList(t *testing.T) {
	image := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/process_image_lm", r.URL.Path)
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), req.Image)
		assert.Equal(t, "Dana Darurat", req.Caption)
		writeJSON(w, http.StatusOK, `{"transactions":[
			{"jenis_lm":"Antam","berat":5,"nominal":"5000k","qty":1,"tabel_savings":"Dana Darurat","tanggal":null},
			{"kind":"UBS","weight":"2.5","amount":0,"quantity":"2","savingsGoal":"Rumah","note":"cicilan"}
		]}`)
	})

	resp, err := c.ClassifyImage(context.Background(), models.FeaturePreciousMetal, image, "Dana Darurat")
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, Candidate{Kind: "Antam", Weight: "5", Amount: "5000k", Quantity: "1", Goal: "Dana Darurat"}, resp.Transactions[0])
	assert.Equal(t, Candidate{Kind: "UBS", Weight: "2.5", Amount: "0", Quantity: "2", Goal: "Rumah", Note: "cicilan"}, resp.Transactions[1])
}

func TestClassify_NoteOnly(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"transactions":[],"note":"Gambar ini bukan struk."}`)
	})
	resp, err := c.ClassifyImage(context.Background(), models.FeatureGeneralExpense, []byte{1}, "")
	require.NoError(t, err)
	assert.Empty(t, resp.Transactions)
	assert.Equal(t, "Gambar ini bukan struk.", resp.Note)
}

func TestClassify_ServiceError(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"detail":"Format tidak dikenali"}`)
	})
	_, err := c.ClassifyText(context.Background(), models.FeaturePreciousMetal, "???")
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.Equal(t, "Format tidak dikenali", se.Detail)
}

func TestClassify_Timeout(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		writeJSON(w, http.StatusOK, `{}`)
	})
	c.httpClient.SetTimeout(50 * time.Millisecond)
	_, err := c.ClassifyText(context.Background(), models.FeatureGeneralExpense, "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClassify_MissingEndpoint(t *testing.T) {
	c := NewClient(Endpoints{}, time.Second, nil, zap.NewNop())
	_, err := c.ClassifyText(context.Background(), models.FeatureGeneralExpense, "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

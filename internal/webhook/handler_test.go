package webhook_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fylein/fyle-integrations-imports/internal/cache"
	"github.com/fylein/fyle-integrations-imports/internal/transport"
	"github.com/fylein/fyle-integrations-imports/internal/webhook"
)

var _ = Describe("Webhook Handler", func() {
	var (
		attrs  *MockAttributeRepository
		router *chi.Mux
	)

	BeforeEach(func() {
		attrs = NewMockAttributeRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		processor := webhook.NewProcessor(attrs, cache.NewMemoryCache(), logger)
		handler := webhook.NewHandler(transport.NewBaseHandler(logger), processor, logger)

		router = chi.NewRouter()
		handler.RegisterRoutes(router)
	})

	post := func(path string, body any) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("processes a valid attribute event", func() {
		rec := post("/workspaces/1/webhooks/attributes", webhook.Event{
			Action:   webhook.ActionCreated,
			Resource: "PROJECT",
			Data:     map[string]any{"id": "p1", "name": "Apollo"},
		})

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(attrs.upserted).To(HaveLen(1))

		var body map[string]string
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["status"]).To(Equal("ok"))
	})

	It("rejects a non-numeric workspace id", func() {
		rec := post("/workspaces/abc/webhooks/attributes", webhook.Event{
			Action:   webhook.ActionCreated,
			Resource: "PROJECT",
			Data:     map[string]any{"id": "p1", "name": "Apollo"},
		})

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(attrs.upserted).To(BeEmpty())
	})

	It("rejects a malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/workspaces/1/webhooks/attributes", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("maps processor validation errors onto their HTTP status", func() {
		rec := post("/workspaces/1/webhooks/attributes", webhook.Event{
			Action:   webhook.ActionCreated,
			Resource: "INVOICE",
			Data:     map[string]any{"id": "i1"},
		})

		Expect(rec.Code).To(Equal(http.StatusBadRequest))

		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Error.Code).To(Equal("UNKNOWN_RESOURCE"))
	})
})

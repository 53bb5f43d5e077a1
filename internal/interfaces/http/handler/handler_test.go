package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/application/companycache"
	"github.com/erp/stockledger/internal/application/files"
	financeapp "github.com/erp/stockledger/internal/application/finance"
	"github.com/erp/stockledger/internal/application/ledger"
	"github.com/erp/stockledger/internal/application/stock"
	"github.com/erp/stockledger/internal/infrastructure/cache"
	"github.com/erp/stockledger/internal/infrastructure/persistence"
	"github.com/erp/stockledger/internal/infrastructure/printing"
	"github.com/erp/stockledger/internal/infrastructure/storage"
	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/erp/stockledger/internal/interfaces/http/handler"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/erp/stockledger/internal/interfaces/http/router"
	"github.com/erp/stockledger/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiFixture struct {
	db      *gorm.DB
	engine  *gin.Engine
	ledger  *testutil.Ledger
	store   *cache.MemoryStore
	storage string
}

// newAPIFixture wires the real services over sqlite. Requests carry the
// actor set by asActor instead of a token.
func newAPIFixture(t *testing.T, opts testutil.LedgerOptions) *apiFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t, persistence.AutoMigrate)
	repos := persistence.NewRepositories(db)
	scope := persistence.NewGormTransactionScope(db)
	ownership := persistence.NewGormOwnershipLookup(db)

	store := cache.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	companyCache := companycache.New(store)

	financeService := financeapp.NewService(scope, repos,
		financeapp.WithCache(companyCache),
		financeapp.WithOwnershipLookup(ownership),
		financeapp.WithRenderers(printing.NewXLSXRenderer("en")),
	)
	engine := ledger.NewEngine(scope, repos, financeService, ledger.WithCache(companyCache))
	stockService := stock.NewService(scope, repos, financeService,
		stock.WithCache(companyCache),
		stock.WithOwnershipLookup(ownership),
		stock.WithLocker(cache.NewLocalLocker()),
		stock.WithRecomputer(engine.Recomputer()),
	)

	root := t.TempDir()
	local, err := storage.NewLocalStorage(root)
	require.NoError(t, err)

	handlers := handler.Handlers{
		Categories:    handler.NewStockCategoryHandler(stockService),
		SubCategories: handler.NewStockSubCategoryHandler(stockService),
		Items:         handler.NewStockItemHandler(stockService),
		Records:       handler.NewStockRecordHandler(engine),
		Recompute:     handler.NewRecomputeHandler(engine),
		Finance:       handler.NewFinanceHandler(financeService),
		Reports:       handler.NewReportHandler(financeService),
		Files:         handler.NewFileHandler(files.NewService(local, 1<<20)),
		Cache:         handler.NewCacheHandler(companyCache, stockService, financeService),
		Health:        handler.NewHealthHandler("test", nil),
	}

	middleware.SetupValidator()
	ginEngine := gin.New()
	ginEngine.Use(middleware.RequestID())
	handlers.RegisterHealth(ginEngine)
	r := router.NewRouter(ginEngine, router.WithMiddleware(asActor))
	handlers.Register(r)
	r.Setup()

	return &apiFixture{
		db:      db,
		engine:  ginEngine,
		ledger:  testutil.SeedLedger(t, db, testutil.TestActor(), opts),
		store:   store,
		storage: root,
	}
}

const actorHeader = "X-Test-Actor"

// asActor resolves the actor from a test header: "other" selects the
// second company, "none" leaves the request anonymous
func asActor(c *gin.Context) {
	switch c.GetHeader(actorHeader) {
	case "none":
	case "other":
		c.Set(middleware.ActorKey, testutil.OtherActor())
	default:
		c.Set(middleware.ActorKey, testutil.TestActor())
	}
	c.Next()
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var resp apiResponse
	if w.Code != http.StatusNoContent && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func decode[T any](t *testing.T, resp apiResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

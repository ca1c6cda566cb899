// @title           Trade Tracker API
// @version         1.0
// @description     API for tracking brokerage transactions and derived positions
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1

package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	apppositions "main/internal/application/service/positions"
	apptransactions "main/internal/application/service/transactions"
	domainpositions "main/internal/domain/entity/positions"
	domaintransactions "main/internal/domain/entity/transactions"
	interfaces "main/internal/domain/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	transactionsBasePath = "/api/v1/transactions"
	positionsBasePath    = "/api/v1/positions"

	accessKeyHeader = "X-Access-Key"
)

var (
	errMissingAccessKey = errors.New("X-Access-Key header required")
	errMissingSymbol    = errors.New("missing symbol")
	errMissingID        = errors.New("missing id")
)

type Handler struct {
	router       *gin.Engine
	transactions *apptransactions.Service
	positions    *apppositions.Service
	cache        *redis.Client
	cacheTTL     time.Duration
}

func NewHandler(transactions *apptransactions.Service, positions *apppositions.Service, cache *redis.Client, cacheTTL time.Duration) *Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{
		router:       router,
		transactions: transactions,
		positions:    positions,
		cache:        cache,
		cacheTTL:     cacheTTL,
	}
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	tx := h.router.Group(transactionsBasePath)
	{
		tx.POST("/", h.createTransaction)
		tx.POST("/collection", h.createTransactionCollection)
		tx.GET("/", h.listTransactions)
		tx.GET("/export", h.exportTransactions)
		tx.GET("/:id", h.getTransaction)
		tx.PUT("/:id", h.updateTransaction)
		tx.DELETE("/:id", h.deleteTransaction)
	}

	pos := h.router.Group(positionsBasePath)
	if h.cache != nil {
		pos.Use(h.cacheMiddleware())
	}
	{
		pos.GET("/", h.listPositions)
		pos.GET("/:symbol", h.getPosition)
		pos.GET("/:symbol/costbasis", h.getCostBasis)
		pos.GET("/:symbol/sourcemap", h.getSourceTransactionMap)
		pos.POST("/:symbol/recalculate", h.recalculatePosition)
	}
}

// Payloads

type transactionPayload struct {
	Symbol     string `json:"symbol"`
	Type       string `json:"type"`
	Quantity   string `json:"quantity"`
	TradePrice string `json:"trade_price"`
	DateTime   string `json:"date_time"`
}

func (p transactionPayload) toDomain(accessKey uuid.UUID) (*domaintransactions.Transaction, error) {
	transactionType, err := domaintransactions.NewTransactionType(p.Type)
	if err != nil {
		return nil, err
	}
	quantity, err := decimal.NewFromString(p.Quantity)
	if err != nil {
		return nil, fmt.Errorf("parse quantity: %w", err)
	}
	tradePrice, err := decimal.NewFromString(p.TradePrice)
	if err != nil {
		return nil, fmt.Errorf("parse trade_price: %w", err)
	}
	transaction := &domaintransactions.Transaction{
		AccessKey:  accessKey,
		Symbol:     p.Symbol,
		Type:       transactionType,
		Quantity:   quantity,
		TradePrice: tradePrice,
	}
	if p.DateTime != "" {
		dateTime, err := time.Parse(time.RFC3339, p.DateTime)
		if err != nil {
			return nil, fmt.Errorf("parse date_time: %w", err)
		}
		transaction.DateTime = dateTime
	}
	return transaction, nil
}

type collectionPayload struct {
	Transactions []transactionPayload `json:"transactions"`
}

type costBasisResponse struct {
	Symbol           string                                  `json:"symbol"`
	AverageCostBasis decimal.Decimal                         `json:"average_cost_basis"`
	SourceMap        []domainpositions.SourceTransactionLink `json:"source_map"`
}

// Transactions handlers

// createTransaction records a new brokerage transaction
// @Summary      Create transaction
// @Description  Record a brokerage transaction and update the symbol position
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        X-Access-Key  header    string              true  "Account access key"
// @Param        transaction   body      transactionPayload  true  "Transaction data"
// @Success      201           {object}  domaintransactions.Transaction
// @Failure      400           {object}  map[string]string
// @Failure      500           {object}  map[string]string
// @Router       /transactions [post]
func (h *Handler) createTransaction(c *gin.Context) {
	accessKey, err := accessKeyFrom(c)
	if err != nil {
		writeError(c, http.StatusUnauthorized, err)
		return
	}
	var payload transactionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	transaction, err := payload.toDomain(accessKey)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.transactions.Create(c.Request.Context(), transaction); err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusCreated, transaction)
}

// createTransactionCollection records a batch of transactions
// @Summary      Create transaction collection
// @Description  Record a batch of transactions; each affected symbol position is refreshed once
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        X-Access-Key  header    string             true  "Account access key"
// @Param        collection    body      collectionPayload  true  "Transaction collection"
// @Success      201           {array}   domaintransactions.Transaction
// @Failure      400           {object}  map[string]string
// @Failure      500           {object}  map[string]string
// @Router       /transactions/collection [post]
func (h *Handler) createTransactionCollection(c *gin.Context) {
	accessKey, err := accessKeyFrom(c)
	if err != nil {
		writeError(c, http.StatusUnauthorized, err)
		return
	}
	var payload collectionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	batch := make([]domaintransactions.Transaction, 0, len(payload.Transactions))
	for _, item := range payload.Transactions {
		transaction, err := item.toDomain(accessKey)
		if err != nil {
			writeError(c, http.StatusBadRequest, err)
			return
		}
		batch = append(batch, *transaction)
	}
	created, err := h.transactions.CreateCollection(c.Request.Context(), accessKey, batch)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// listTransactions lists the account's transactions
// @Summary      List transactions
// @Description  List transactions ascending by trade timestamp, optionally filtered
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        X-Access-Key  header    string  true   "Account access key"
// @Param        symbol        query     string  false  "Filter by symbol"
// @Param        type          query     string  false  "Filter by transaction type"
// @Success      200           {array}   domaintransactions.Transaction
// @Failure      400           {object}  map[string]string
// @Failure      500           {object}  map[string]string
// @Router       /transactions [get]
func (h *Handler) listTransactions(c *gin.Context) {
	accessKey, err := accessKeyFrom(c)
	if err != nil {
		writeError(c, http.StatusUnauthorized, err)
		return
	}
	filter := interfaces.TransactionFilter{Symbol: c.Query("symbol")}
	if typeStr := c.Query("type"); typeStr != "" {
		transactionType, err := domaintransactions.NewTransactionType(typeStr)
		if err != nil {
			writeError(c, http.StatusBadRequest, err)
			return
		}
		filter.Type = transactionType
	}
	list, err := h.transactions.List(c.Request.Context(), accessKey, filter)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// exportTransactions exports the account's transactions as CSV
// @Summary      Export transactions
// @Description  Export every transaction of the account as a CSV file
// @Tags         transactions
// @Accept       json
// @Produce      text/csv
// @Param        X-Access-Key  header  string  true  "Account access key"
// @Success      200           {string}  string
// @Failure      500           {object}  map[string]string
// @Router       /transactions/export [get]
func (h *Handler) exportTransactions(c *gin.Context) {
	accessKey, err := accessKeyFrom(c)
	if err != nil {
		writeError(c, http.StatusUnauthorized, err)
		return
	}
	data, err := h.transactions.ExportCSV(c.Request.Context(), accessKey)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	fileName := fmt.Sprintf("%s.csv", uuid.New())
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// getTransaction retrieves one transaction
// @Summary      Get transaction
// @Description  Get a transaction by id
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        X-Access-Key  header    string  true  "Account access key"
// @Param        id            path      string  true  "Transaction id"
// @Success      200           {object}  domaintransactions.Transaction
// @Failure      404           {object}  map[string]string
// @Failure      500           {object}  map[string]string
// @Router       /transactions/{id} [get]
func (h *Handler) getTransaction(c *gin.Context) {
	accessKey, err := accessKeyFrom(c)
	if err != nil {
		writeError(c, http.StatusUnauthorized, err)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, errMissingID)
		return
	}
	transaction, err := h.transactions.GetByID(c.Request.Context(), accessKey, id)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}

// updateTransaction replaces a transaction
// @Summary      Update transaction
// @Description  Replace a transaction's fields and reconcile the affected positions
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        X-Access-Key  header    string              true  "Account access key"
// @Param        id            path      string              true  "Transaction id"
// @Param        transaction   body      transactionPayload  true  "New transaction data"
// @Success      200           {object}  domaintransactions.Transaction
// @Failure      400           {object}  map[string]string
// @Failure      404           {object}  map[string]string
// @Failure      500           {object}  map[string]string
// @Router       /transactions/{id} [put]
func (h *Handler) updateTransaction(c *gin.Context) {
	accessKey, err := accessKeyFrom(c)
	if err != nil {
		writeError(c, http.StatusUnauthorized, err)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, errMissingID)
		return
	}
	var payload transactionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	transaction, err := payload.toDomain(accessKey)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	transaction.ID = id
	if err := h.transactions.Update(c.Request.Context(), transaction); err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}

// deleteTransaction removes a transaction
// @Summary      Delete transaction
// @Description  Delete a transaction and detach its effect from the position
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        X-Access-Key  header  string  true  "Account access key"
// @Param        id            path    string  true  "Transaction id"
// @Success      204           "No Content"
// @Failure      404           {object}  map[string]string
// @Failure      500           {object}  map[string]string
// @Router       /transactions/{id} [delete]
func (h *Handler) deleteTransaction(c *gin.Context) {
	accessKey, err := accessKeyFrom(c)
	if err != nil {
		writeError(c, http.StatusUnauthorized, err)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, errMissingID)
		return
	}
	if err := h.transactions.Delete(c.Request.Context(), accessKey, id); err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Positions handlers

// listPositions lists the account's open positions
// @Summary      List positions
// @Description  List every open position for the account
// @Tags         positions
// @Accept       json
// @Produce      json
// @Param        X-Access-Key  header    string  true  "Account access key"
// @Success      200           {array}   domainpositions.Position
// @Failure      500           {object}  map[string]string
// @Router       /positions [get]
func (h *Handler) listPositions(c *gin.Context) {
	accessKey, err := accessKeyFrom(c)
	if err != nil {
		writeError(c, http.StatusUnauthorized, err)
		return
	}
	list, err := h.positions.GetAll(c.Request.Context(), accessKey)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// getPosition retrieves the open position for a symbol
// @Summary      Get position
// @Description  Get the open position for a symbol
// @Tags         positions
// @Accept       json
// @Produce      json
// @Param        X-Access-Key  header    string  true  "Account access key"
// @Param        symbol        path      string  true  "Ticker symbol"
// @Success      200           {object}  domainpositions.Position
// @Failure      404           {object}  map[string]string
// @Failure      500           {object}  map[string]string
// @Router       /positions/{symbol} [get]
func (h *Handler) getPosition(c *gin.Context) {
	accessKey, err := accessKeyFrom(c)
	if err != nil {
		writeError(c, http.StatusUnauthorized, err)
		return
	}
	symbol := c.Param("symbol")
	if symbol == "" {
		writeError(c, http.StatusBadRequest, errMissingSymbol)
		return
	}
	position, err := h.positions.GetBySymbol(c.Request.Context(), accessKey, symbol)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, position)
}

// getCostBasis computes FIFO average cost basis for a symbol
// @Summary      Get cost basis
// @Description  Compute the FIFO average cost basis and source transaction map for the open position
// @Tags         positions
// @Accept       json
// @Produce      json
// @Param        X-Access-Key  header    string  true  "Account access key"
// @Param        symbol        path      string  true  "Ticker symbol"
// @Success      200           {object}  costBasisResponse
// @Failure      404           {object}  map[string]string
// @Failure      409           {object}  map[string]string
// @Failure      500           {object}  map[string]string
// @Router       /positions/{symbol}/costbasis [get]
func (h *Handler) getCostBasis(c *gin.Context) {
	accessKey, err := accessKeyFrom(c)
	if err != nil {
		writeError(c, http.StatusUnauthorized, err)
		return
	}
	symbol := c.Param("symbol")
	if symbol == "" {
		writeError(c, http.StatusBadRequest, errMissingSymbol)
		return
	}
	links, err := h.positions.CreateSourceTransactionMap(c.Request.Context(), accessKey, symbol)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	average, err := domainpositions.AverageCostBasis(links)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, costBasisResponse{
		Symbol:           symbol,
		AverageCostBasis: average,
		SourceMap:        links,
	})
}

// getSourceTransactionMap links the open quantity to its source buys
// @Summary      Get source transaction map
// @Description  Show how the open quantity maps onto historical buy transactions, FIFO
// @Tags         positions
// @Accept       json
// @Produce      json
// @Param        X-Access-Key  header    string  true  "Account access key"
// @Param        symbol        path      string  true  "Ticker symbol"
// @Success      200           {array}   domainpositions.SourceTransactionLink
// @Failure      404           {object}  map[string]string
// @Failure      409           {object}  map[string]string
// @Failure      500           {object}  map[string]string
// @Router       /positions/{symbol}/sourcemap [get]
func (h *Handler) getSourceTransactionMap(c *gin.Context) {
	accessKey, err := accessKeyFrom(c)
	if err != nil {
		writeError(c, http.StatusUnauthorized, err)
		return
	}
	symbol := c.Param("symbol")
	if symbol == "" {
		writeError(c, http.StatusBadRequest, errMissingSymbol)
		return
	}
	links, err := h.positions.CreateSourceTransactionMap(c.Request.Context(), accessKey, symbol)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, links)
}

// recalculatePosition rebuilds a position from its transaction history
// @Summary      Recalculate position
// @Description  Delete the stored position and rebuild it from the full transaction history
// @Tags         positions
// @Accept       json
// @Produce      json
// @Param        X-Access-Key  header  string  true  "Account access key"
// @Param        symbol        path    string  true  "Ticker symbol"
// @Success      204           "No Content"
// @Failure      400           {object}  map[string]string
// @Failure      500           {object}  map[string]string
// @Router       /positions/{symbol}/recalculate [post]
func (h *Handler) recalculatePosition(c *gin.Context) {
	accessKey, err := accessKeyFrom(c)
	if err != nil {
		writeError(c, http.StatusUnauthorized, err)
		return
	}
	symbol := c.Param("symbol")
	if symbol == "" {
		writeError(c, http.StatusBadRequest, errMissingSymbol)
		return
	}
	if err := h.positions.RecalculateForSymbol(c.Request.Context(), accessKey, symbol); err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Helpers

func accessKeyFrom(c *gin.Context) (uuid.UUID, error) {
	value := c.GetHeader(accessKeyHeader)
	if value == "" {
		return uuid.Nil, errMissingAccessKey
	}
	return uuid.Parse(value)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrTransactionNotFound),
		errors.Is(err, interfaces.ErrPositionNotFound),
		errors.Is(err, domainpositions.ErrNoOpenPosition):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrConcurrencyConflict),
		errors.Is(err, domainpositions.ErrInconsistentHistory):
		return http.StatusConflict
	case errors.Is(err, domaintransactions.ErrInvalidQuantity),
		errors.Is(err, domaintransactions.ErrInvalidTradePrice),
		errors.Is(err, domaintransactions.ErrInvalidType),
		errors.Is(err, domaintransactions.ErrMissingSymbol),
		errors.Is(err, apptransactions.ErrEmptyCollection):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, status int, err error) {
	if err == nil {
		status = http.StatusInternalServerError
		err = errors.New("unknown error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// cacheMiddleware caches GET responses in Redis.
func (h *Handler) cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := h.cacheKey(c)
		ctx := c.Request.Context()

		if cached, err := h.cache.Get(ctx, key).Result(); err == nil {
			c.Data(http.StatusOK, "application/json", []byte(cached))
			c.Abort()
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: c.Writer,
			status:         http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = recorder

		c.Next()

		if recorder.status >= 200 && recorder.status < 300 && recorder.body.Len() > 0 {
			_ = h.cache.Set(ctx, key, recorder.body.Bytes(), h.cacheTTL).Err()
		}
	}
}

type responseRecorder struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if len(data) > 0 {
		r.body.Write(data)
	}
	return r.ResponseWriter.Write(data)
}

// cacheKey scopes cached responses to the requesting account.
func (h *Handler) cacheKey(c *gin.Context) string {
	return fmt.Sprintf("cache:%s:%s:%s?%s", c.GetHeader(accessKeyHeader), c.Request.Method, c.Request.URL.Path, c.Request.URL.RawQuery)
}

package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vision_gateway/internal/billing"
	"vision_gateway/internal/ledger"
	"vision_gateway/internal/metrics"
	"vision_gateway/internal/models"
	"vision_gateway/internal/payment"
	"vision_gateway/internal/providers"
	"vision_gateway/internal/quality"
	"vision_gateway/internal/tiering"
)

// State names the position of a request in the pipeline.
type State string

const (
	StateReceived        State = "received"
	StateClassified      State = "classified"
	StateAwaitingPayment State = "awaiting_payment"
	StatePaymentVerified State = "payment_verified"
	StateAnalyzing       State = "analyzing"
	StateScored          State = "scored"
	StateBilled          State = "billed"
	StateCompleted       State = "completed"

	// Terminal states. PaymentRequired is a protocol checkpoint, not a
	// failure: the client resubmits the same logical request with a
	// credential and it arrives as a fresh Received.
	StateRejected        State = "rejected"
	StatePaymentRequired State = "payment_required"
	StateUpstreamFailed  State = "upstream_failed"
)

// Request is one incoming analysis request.
type Request struct {
	Question    string
	ImageBase64 string
	Credential  string // contents of the X-Payment header, if any

	// ForceTier pins the tier for the dedicated paid endpoints; empty
	// means the classifier selects it.
	ForceTier string

	// Resource is the URL the payment credential must reference.
	Resource string
}

// HasImage reports whether the request carries a non-empty image payload.
func (r Request) HasImage() bool {
	return strings.TrimSpace(r.ImageBase64) != ""
}

// Result is the outcome of one pipeline run.
type Result struct {
	State      State
	Tier       string
	Complexity int
	HasImage   bool

	Analysis *providers.AnalysisResult
	Quality  float64
	Decision billing.Decision
	Receipt  *payment.Receipt

	// Challenge is set only when State is StatePaymentRequired.
	Challenge *payment.Challenge

	Transaction *models.Transaction
	Timestamp   time.Time
}

// Pipeline orchestrates one request through classification, payment,
// inference, scoring, billing, and the ledger. All collaborators are
// injected; the pipeline itself holds no cross-request state.
type Pipeline struct {
	resolver *tiering.Resolver
	issuer   *payment.Issuer
	verifier payment.Verifier
	provider providers.Provider
	fallback providers.Provider // serves free tiers when the provider fails
	engine   *billing.Engine
	ledger   ledger.Ledger
	metrics  *metrics.Metrics
	log      *logrus.Entry
	now      func() time.Time
}

// Options configures a Pipeline.
type Options struct {
	Resolver *tiering.Resolver
	Issuer   *payment.Issuer
	Verifier payment.Verifier
	Provider providers.Provider
	Fallback providers.Provider
	Engine   *billing.Engine
	Ledger   ledger.Ledger
	Metrics  *metrics.Metrics
	Logger   *logrus.Logger
	Now      func() time.Time
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}

	return &Pipeline{
		resolver: opts.Resolver,
		issuer:   opts.Issuer,
		verifier: opts.Verifier,
		provider: opts.Provider,
		fallback: opts.Fallback,
		engine:   opts.Engine,
		ledger:   opts.Ledger,
		metrics:  opts.Metrics,
		log:      log.WithField("component", "pipeline"),
		now:      now,
	}
}

// Run executes the state machine for one request.
//
// Received → Classified → (free: Analyzing | paid: AwaitingPayment →
// PaymentVerified → Analyzing) → Scored → Billed → Completed.
//
// The two-phase paid flow is stateless: a 402 halts the pipeline and the
// resubmission with a credential arrives as a fresh request.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{State: StateReceived, Timestamp: p.now()}

	// Received → Rejected
	if strings.TrimSpace(req.Question) == "" {
		res.State = StateRejected
		p.observe("", "rejected")
		return res, ErrQuestionRequired
	}

	// Classified (always succeeds; the classifier is total)
	res.HasImage = req.HasImage()
	res.Complexity = tiering.Classify(req.Question, res.HasImage)
	if req.ForceTier != "" {
		res.Tier = req.ForceTier
		res.Complexity = tierRank(req.ForceTier)
	} else {
		res.Tier = p.resolver.Resolve(res.Complexity)
	}
	res.State = StateClassified

	price := p.resolver.PriceOf(res.Tier, res.HasImage)

	if p.resolver.RequiresPayment(res.Tier) {
		if req.Credential == "" {
			// Protocol checkpoint: emit the challenge and halt.
			challenge := p.issuer.Issue(tiering.Describe(res.Tier, res.HasImage), price)
			res.Challenge = &challenge
			res.State = StatePaymentRequired
			p.observe(res.Tier, "payment_required")
			return res, nil
		}

		// AwaitingPayment → PaymentVerified | UpstreamFailed
		res.State = StateAwaitingPayment
		receipt, err := p.verifier.Verify(ctx, req.Credential, payment.Expectation{
			AmountMicroSTX: payment.ToMicroSTX(price),
			PayTo:          p.issuer.PayTo(),
			Network:        payment.NetworkStacks,
			Asset:          payment.AssetSTX,
			Resource:       req.Resource,
		})
		if err != nil {
			res.State = StateUpstreamFailed
			p.observe(res.Tier, "verification_failed")
			return res, &VerificationError{Err: err}
		}
		res.Receipt = receipt
		res.State = StatePaymentVerified

		// Payment is collected; a caller disconnect must not cancel the
		// inference it paid for.
		ctx = context.WithoutCancel(ctx)
	}

	// Analyzing
	res.State = StateAnalyzing
	analysis, err := p.analyze(ctx, req, res.Tier)
	if err != nil {
		res.State = StateUpstreamFailed
		p.observe(res.Tier, "upstream_failed")
		return res, &UpstreamError{Err: err}
	}
	res.Analysis = analysis
	if p.metrics != nil {
		p.metrics.ObserveInference(res.Tier, analysis.ProcessingTime)
	}

	// Scored
	res.Quality = quality.Score(analysis.Text, req.Question, res.HasImage)
	res.State = StateScored
	if p.metrics != nil {
		p.metrics.ObserveQuality(res.Tier, res.Quality)
	}

	// Billed. The verified receipt authorizes exactly this inference
	// call; it is not carried beyond the transaction it produced.
	res.Decision = p.engine.Decide(res.Tier, res.HasImage, res.Receipt != nil && res.Receipt.Verified, res.Quality)
	res.State = StateBilled

	tx := models.Transaction{
		ID:        uuid.New(),
		Tier:      res.Tier,
		Cost:      res.Decision.Amount,
		Charged:   res.Decision.Charged,
		Quality:   res.Quality,
		Timestamp: p.now(),
	}
	if err := p.ledger.Append(ctx, tx); err != nil {
		// The response is still served; the append failure is logged for
		// reconciliation rather than failing a request that already ran.
		p.log.WithError(err).WithField("transaction_id", tx.ID).Error("ledger append failed")
	}
	res.Transaction = &tx

	res.State = StateCompleted
	p.observe(res.Tier, "completed")
	if p.metrics != nil && res.Decision.Charged {
		p.metrics.ObserveCharge(res.Tier, res.Decision.Amount)
	}

	return res, nil
}

// analyze runs inference, falling back to the mock provider for free tiers
// only. Paid tiers surface provider failures: the client paid for a real
// answer, not a canned one.
func (p *Pipeline) analyze(ctx context.Context, req Request, tier string) (*providers.AnalysisResult, error) {
	preq := providers.AnalysisRequest{
		Question:    req.Question,
		ImageBase64: req.ImageBase64,
		Tier:        tier,
		MaxTokens:   p.resolver.TokenLimitOf(tier),
	}

	result, err := p.provider.Analyze(ctx, preq)
	if err == nil {
		return result, nil
	}

	if p.fallback != nil && !p.resolver.RequiresPayment(tier) {
		p.log.WithError(err).WithField("tier", tier).Warn("provider failed, serving mock analysis")
		return p.fallback.Analyze(ctx, preq)
	}

	return nil, err
}

func (p *Pipeline) observe(tier, outcome string) {
	if p.metrics == nil {
		return
	}
	if tier == "" {
		tier = "unknown"
	}
	p.metrics.ObserveRequest(tier, outcome)
}

// tierRank maps a tier name to its canonical complexity level.
func tierRank(tier string) int {
	switch tier {
	case tiering.TierEnterprise:
		return 4
	case tiering.TierPremium:
		return 3
	case tiering.TierAdvanced:
		return 2
	default:
		return 1
	}
}

package shortcode

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/okoapay/c2b-console/internal/config"
	"github.com/okoapay/c2b-console/internal/daraja"
	"github.com/okoapay/c2b-console/internal/middleware"
	"github.com/okoapay/c2b-console/internal/model"
	"github.com/okoapay/c2b-console/pkg/constants"
	"github.com/okoapay/c2b-console/pkg/types"
)

// GatewayClient is the outbound Daraja surface the service needs.
type GatewayClient interface {
	RegisterURLs(ctx context.Context, creds daraja.Credentials, req *types.RegisterURLRequest) (*types.RegisterURLResponse, error)
	SimulateC2B(ctx context.Context, creds daraja.Credentials, req *types.SimulateC2BRequest) (*types.SimulateC2BResponse, error)
}

type ShortcodeService struct {
	repo    ShortcodeRepository
	gateway GatewayClient
	cfg     *config.ServerConfig
}

func NewShortcodeService(repo ShortcodeRepository, gateway GatewayClient, cfg *config.ServerConfig) *ShortcodeService {
	return &ShortcodeService{
		repo:    repo,
		gateway: gateway,
		cfg:     cfg,
	}
}

func (s *ShortcodeService) Create(ctx context.Context, req *types.CreateShortcodeRequest) (*model.Shortcode, error) {
	token, err := model.NewWebhookToken()
	if err != nil {
		return nil, err
	}

	responseType := req.ResponseType
	if responseType == "" {
		responseType = constants.ResponseTypeCompleted
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	sc := &model.Shortcode{
		ID:             uuid.New(),
		Name:           req.Name,
		Shortcode:      req.Shortcode,
		Type:           req.Type,
		ConsumerKey:    req.ConsumerKey,
		ConsumerSecret: req.ConsumerSecret,
		ResponseType:   responseType,
		WebhookToken:   token,
		IsActive:       isActive,
	}

	if err := s.repo.Create(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *ShortcodeService) Update(ctx context.Context, id uuid.UUID, req *types.UpdateShortcodeRequest) (*model.Shortcode, error) {
	sc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sc.Name = req.Name
	sc.Shortcode = req.Shortcode
	sc.Type = req.Type
	sc.ConsumerKey = req.ConsumerKey
	// An empty secret on update keeps the stored one, so operators can edit
	// the other fields without re-entering credentials.
	if req.ConsumerSecret != "" {
		sc.ConsumerSecret = req.ConsumerSecret
	}
	sc.ResponseType = req.ResponseType
	sc.IsActive = *req.IsActive

	if err := s.repo.Update(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *ShortcodeService) Get(ctx context.Context, id uuid.UUID) (*model.Shortcode, *model.ValidationRule, error) {
	sc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rule, err := s.repo.GetRule(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return sc, rule, nil
}

func (s *ShortcodeService) List(ctx context.Context) ([]model.Shortcode, error) {
	return s.repo.List(ctx)
}

func (s *ShortcodeService) UpsertRule(ctx context.Context, id uuid.UUID, req *types.UpsertRuleRequest) (*model.ValidationRule, error) {
	// Make sure the shortcode exists before attaching a rule.
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	rule := &model.ValidationRule{
		ID:             uuid.New(),
		ShortcodeID:    id,
		MinAmount:      req.MinAmount,
		MaxAmount:      req.MaxAmount,
		RequireBillRef: req.RequireBillRef,
		BillRefRegex:   req.BillRefRegex,
	}
	if err := s.repo.UpsertRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// WebhookURLs derives the callback endpoints for a shortcode from the
// configured public base URL.
func (s *ShortcodeService) WebhookURLs(sc *model.Shortcode) types.WebhookURLs {
	base := s.cfg.PublicBaseURL
	return types.WebhookURLs{
		ValidationURL:   fmt.Sprintf("%s/webhooks/c2b/%s/%s/validation", base, sc.ID, sc.WebhookToken),
		ConfirmationURL: fmt.Sprintf("%s/webhooks/c2b/%s/%s/confirmation", base, sc.ID, sc.WebhookToken),
	}
}

func (s *ShortcodeService) RegisterURLs(ctx context.Context, id uuid.UUID) (*types.RegisterURLResponse, error) {
	logger := middleware.GetLogger(ctx)

	sc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	urls := s.WebhookURLs(sc)
	logger.Info().
		Str("shortcode", sc.Shortcode).
		Str("response_type", sc.ResponseType).
		Msg("Registering C2B URLs with Daraja")

	resp, err := s.gateway.RegisterURLs(ctx, daraja.Credentials{
		ConsumerKey:    sc.ConsumerKey,
		ConsumerSecret: sc.ConsumerSecret,
	}, &types.RegisterURLRequest{
		ShortCode:       sc.Shortcode,
		ResponseType:    sc.ResponseType,
		ConfirmationURL: urls.ConfirmationURL,
		ValidationURL:   urls.ValidationURL,
	})
	if err != nil {
		return nil, fmt.Errorf("registerurl failed: %w", err)
	}
	return resp, nil
}

func (s *ShortcodeService) Simulate(ctx context.Context, id uuid.UUID, req *types.SimulateRequest) (*types.SimulateC2BResponse, error) {
	logger := middleware.GetLogger(ctx)

	sc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	amount := req.Amount
	if amount == 0 {
		amount = constants.DefaultSimulateAmount
	}
	msisdn := req.Msisdn
	if msisdn == "" {
		msisdn = constants.DefaultSimulateMsisdn
	}
	billRef := req.BillRefNumber
	if billRef == "" {
		billRef = constants.DefaultSimulateBillRef
	}

	commandID := constants.CommandIDPayBill
	if sc.Type == constants.ShortcodeTypeTill {
		commandID = constants.CommandIDBuyGoods
	}

	logger.Info().
		Str("shortcode", sc.Shortcode).
		Int64("amount", amount).
		Msg("Simulating C2B payment via Daraja sandbox")

	resp, err := s.gateway.SimulateC2B(ctx, daraja.Credentials{
		ConsumerKey:    sc.ConsumerKey,
		ConsumerSecret: sc.ConsumerSecret,
	}, &types.SimulateC2BRequest{
		ShortCode:     sc.Shortcode,
		CommandID:     commandID,
		Amount:        amount,
		Msisdn:        msisdn,
		BillRefNumber: billRef,
	})
	if err != nil {
		return nil, fmt.Errorf("simulate failed: %w", err)
	}
	return resp, nil
}

package shortcode

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/okoapay/c2b-console/internal/config"
	"github.com/okoapay/c2b-console/internal/daraja"
	"github.com/okoapay/c2b-console/internal/model"
	"github.com/okoapay/c2b-console/pkg/constants"
	"github.com/okoapay/c2b-console/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	shortcodes map[uuid.UUID]*model.Shortcode
	rules      map[uuid.UUID]*model.ValidationRule
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		shortcodes: make(map[uuid.UUID]*model.Shortcode),
		rules:      make(map[uuid.UUID]*model.ValidationRule),
	}
}

func (f *fakeRepo) Create(ctx context.Context, sc *model.Shortcode) error {
	f.shortcodes[sc.ID] = sc
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, sc *model.Shortcode) error {
	if _, ok := f.shortcodes[sc.ID]; !ok {
		return ErrNotFound
	}
	f.shortcodes[sc.ID] = sc
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Shortcode, error) {
	sc, ok := f.shortcodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *sc
	return &copied, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]model.Shortcode, error) {
	var out []model.Shortcode
	for _, sc := range f.shortcodes {
		out = append(out, *sc)
	}
	return out, nil
}

func (f *fakeRepo) GetRule(ctx context.Context, shortcodeID uuid.UUID) (*model.ValidationRule, error) {
	return f.rules[shortcodeID], nil
}

func (f *fakeRepo) UpsertRule(ctx context.Context, rule *model.ValidationRule) error {
	f.rules[rule.ShortcodeID] = rule
	return nil
}

type fakeGateway struct {
	registerReq *types.RegisterURLRequest
	simulateReq *types.SimulateC2BRequest
	creds       daraja.Credentials
}

func (f *fakeGateway) RegisterURLs(ctx context.Context, creds daraja.Credentials, req *types.RegisterURLRequest) (*types.RegisterURLResponse, error) {
	f.creds = creds
	f.registerReq = req
	return &types.RegisterURLResponse{ResponseCode: "0", ResponseDescription: "Success"}, nil
}

func (f *fakeGateway) SimulateC2B(ctx context.Context, creds daraja.Credentials, req *types.SimulateC2BRequest) (*types.SimulateC2BResponse, error) {
	f.creds = creds
	f.simulateReq = req
	return &types.SimulateC2BResponse{ResponseDescription: "Accept the service request successfully."}, nil
}

func newTestService() (*ShortcodeService, *fakeRepo, *fakeGateway) {
	repo := newFakeRepo()
	gateway := &fakeGateway{}
	cfg := &config.ServerConfig{PublicBaseURL: "https://console.example.com"}
	return NewShortcodeService(repo, gateway, cfg), repo, gateway
}

func TestCreateShortcode(t *testing.T) {
	svc, repo, _ := newTestService()

	sc, err := svc.Create(context.Background(), &types.CreateShortcodeRequest{
		Name:           "Main Till",
		Shortcode:      "600999",
		Type:           constants.ShortcodeTypeTill,
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, sc.ID)
	assert.Regexp(t, "^[0-9a-f]{64}$", sc.WebhookToken)
	assert.Equal(t, constants.ResponseTypeCompleted, sc.ResponseType)
	assert.True(t, sc.IsActive)
	assert.Contains(t, repo.shortcodes, sc.ID)
}

func TestCreateShortcodeInactive(t *testing.T) {
	svc, _, _ := newTestService()

	inactive := false
	sc, err := svc.Create(context.Background(), &types.CreateShortcodeRequest{
		Name:           "Paused Paybill",
		Shortcode:      "400200",
		Type:           constants.ShortcodeTypePaybill,
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		ResponseType:   constants.ResponseTypeCancelled,
		IsActive:       &inactive,
	})
	require.NoError(t, err)
	assert.False(t, sc.IsActive)
	assert.Equal(t, constants.ResponseTypeCancelled, sc.ResponseType)
}

func TestUpdateShortcodeKeepsSecret(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.Create(context.Background(), &types.CreateShortcodeRequest{
		Name:           "Main Till",
		Shortcode:      "600999",
		Type:           constants.ShortcodeTypeTill,
		ConsumerKey:    "ck",
		ConsumerSecret: "original-secret",
	})
	require.NoError(t, err)

	active := true
	updated, err := svc.Update(context.Background(), created.ID, &types.UpdateShortcodeRequest{
		Name:         "Renamed Till",
		Shortcode:    "600999",
		Type:         constants.ShortcodeTypeTill,
		ConsumerKey:  "ck2",
		ResponseType: constants.ResponseTypeCompleted,
		IsActive:     &active,
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed Till", updated.Name)
	assert.Equal(t, "original-secret", updated.ConsumerSecret)
	// The webhook token survives updates; rotating it would break the
	// URLs already registered with Daraja.
	assert.Equal(t, created.WebhookToken, updated.WebhookToken)
}

func TestUpdateShortcodeNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	active := true
	_, err := svc.Update(context.Background(), uuid.New(), &types.UpdateShortcodeRequest{
		Name: "x", Shortcode: "600999", Type: constants.ShortcodeTypeTill,
		ConsumerKey: "ck", ResponseType: constants.ResponseTypeCompleted, IsActive: &active,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWebhookURLs(t *testing.T) {
	svc, _, _ := newTestService()

	sc := &model.Shortcode{ID: uuid.MustParse("11111111-2222-3333-4444-555555555555"), WebhookToken: "deadbeef"}
	urls := svc.WebhookURLs(sc)

	assert.Equal(t, "https://console.example.com/webhooks/c2b/11111111-2222-3333-4444-555555555555/deadbeef/validation", urls.ValidationURL)
	assert.Equal(t, "https://console.example.com/webhooks/c2b/11111111-2222-3333-4444-555555555555/deadbeef/confirmation", urls.ConfirmationURL)
}

func TestRegisterURLs(t *testing.T) {
	svc, _, gateway := newTestService()

	created, err := svc.Create(context.Background(), &types.CreateShortcodeRequest{
		Name:           "Main Paybill",
		Shortcode:      "400200",
		Type:           constants.ShortcodeTypePaybill,
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
	})
	require.NoError(t, err)

	resp, err := svc.RegisterURLs(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "0", resp.ResponseCode)

	require.NotNil(t, gateway.registerReq)
	assert.Equal(t, "400200", gateway.registerReq.ShortCode)
	assert.Equal(t, constants.ResponseTypeCompleted, gateway.registerReq.ResponseType)
	assert.Contains(t, gateway.registerReq.ValidationURL, created.ID.String())
	assert.Contains(t, gateway.registerReq.ValidationURL, created.WebhookToken)
	assert.Equal(t, daraja.Credentials{ConsumerKey: "ck", ConsumerSecret: "cs"}, gateway.creds)
}

func TestSimulateDefaults(t *testing.T) {
	svc, _, gateway := newTestService()

	created, err := svc.Create(context.Background(), &types.CreateShortcodeRequest{
		Name:           "Main Till",
		Shortcode:      "600999",
		Type:           constants.ShortcodeTypeTill,
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
	})
	require.NoError(t, err)

	_, err = svc.Simulate(context.Background(), created.ID, &types.SimulateRequest{})
	require.NoError(t, err)

	require.NotNil(t, gateway.simulateReq)
	assert.Equal(t, constants.DefaultSimulateAmount, gateway.simulateReq.Amount)
	assert.Equal(t, constants.DefaultSimulateMsisdn, gateway.simulateReq.Msisdn)
	assert.Equal(t, constants.DefaultSimulateBillRef, gateway.simulateReq.BillRefNumber)
	// Tills simulate with BuyGoods, paybills with PayBill.
	assert.Equal(t, constants.CommandIDBuyGoods, gateway.simulateReq.CommandID)
}

func TestSimulatePaybillCommand(t *testing.T) {
	svc, _, gateway := newTestService()

	created, err := svc.Create(context.Background(), &types.CreateShortcodeRequest{
		Name:           "Main Paybill",
		Shortcode:      "400200",
		Type:           constants.ShortcodeTypePaybill,
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
	})
	require.NoError(t, err)

	_, err = svc.Simulate(context.Background(), created.ID, &types.SimulateRequest{
		Amount:        2500,
		Msisdn:        "254711222333",
		BillRefNumber: "INV-9",
	})
	require.NoError(t, err)

	assert.Equal(t, constants.CommandIDPayBill, gateway.simulateReq.CommandID)
	assert.Equal(t, int64(2500), gateway.simulateReq.Amount)
	assert.Equal(t, "254711222333", gateway.simulateReq.Msisdn)
	assert.Equal(t, "INV-9", gateway.simulateReq.BillRefNumber)
}

func TestUpsertRuleRequiresShortcode(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.UpsertRule(context.Background(), uuid.New(), &types.UpsertRuleRequest{})
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := svc.Create(context.Background(), &types.CreateShortcodeRequest{
		Name:           "Main Till",
		Shortcode:      "600999",
		Type:           constants.ShortcodeTypeTill,
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
	})
	require.NoError(t, err)

	min := int64(1000)
	rule, err := svc.UpsertRule(context.Background(), created.ID, &types.UpsertRuleRequest{MinAmount: &min})
	require.NoError(t, err)
	assert.Equal(t, created.ID, rule.ShortcodeID)
	assert.Contains(t, repo.rules, created.ID)
}

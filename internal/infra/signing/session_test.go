package signing

import (
	"encoding/hex"
	"strconv"
	"testing"

	"github.com/kashguard/go-eos-signer/internal/eos/actions"
	"github.com/kashguard/go-eos-signer/internal/eos/codec"
	"github.com/kashguard/go-eos-signer/internal/infra/key"
	"github.com/kashguard/go-eos-signer/internal/infra/protocol"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testChainID  = "aca376f206b8fc25a6ed44dbdc66547c36c6c33e3a119ffbeaef943642f0e906"
)

var (
	alice  = codec.MustName("alice")
	bob    = codec.MustName("bob")
	active = codec.MustName("active")
	eos4   = uint64(0x534f4504)
)

// recordingDeriver 记录根节点派生，实际派生交给 hdkeychain
type recordingDeriver struct {
	mock.Mock
	real *key.HDKeychainDeriver
}

func newRecordingDeriver() *recordingDeriver {
	d := &recordingDeriver{real: key.NewHDKeychainDeriver()}
	d.On("FromSeed", key.CurveSecp256k1).Return()
	return d
}

func (d *recordingDeriver) FromSeed(seed []byte, curve key.Curve) (key.Node, error) {
	d.Called(curve)
	return d.real.FromSeed(seed, curve)
}

func testRequest(numActions uint32) *SignRequest {
	chainID, _ := hex.DecodeString(testChainID)
	return &SignRequest{
		ChainID: chainID,
		Header: &Header{
			Expiration:     1555000000,
			RefBlockNum:    6439,
			RefBlockPrefix: 2995713264,
		},
		NumActions: numActions,
		AddressN:   key.EOSPath(0),
	}
}

func transferAction() *actions.Action {
	return &actions.Action{
		Common: actions.Common{
			Account:       codec.MustName("eosio.token"),
			Name:          actions.TransferName,
			Authorization: []actions.PermissionLevel{{Actor: alice, Permission: active}},
		},
		Payload: &actions.Transfer{
			Sender:   alice,
			Receiver: bob,
			Quantity: actions.Asset{Amount: 10000, Symbol: eos4},
			Memo:     "test",
		},
	}
}

func unknownAction(declared uint32, chunk []byte) *actions.Action {
	return &actions.Action{
		Common: actions.Common{
			Account:       codec.MustName("somecontract"),
			Name:          codec.MustName("dosomething"),
			Authorization: []actions.PermissionLevel{{Actor: alice, Permission: active}},
		},
		Payload: &actions.Unknown{DataSize: declared, DataChunk: chunk},
	}
}

func chunkAction(chunk []byte) *actions.Action {
	return &actions.Action{Payload: &actions.Unknown{DataChunk: chunk}}
}

type SessionTestSuite struct {
	suite.Suite

	deriver  *recordingDeriver
	keychain *key.Keychain
	session  *Session
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (s *SessionTestSuite) SetupTest() {
	s.deriver = newRecordingDeriver()
	seed := key.MnemonicToSeed(testMnemonic, "")
	s.keychain = key.NewKeychain(s.deriver, seed, key.EOSNamespaces())
	s.session = NewSession("test-session", s.keychain, DefaultOptions())
}

func (s *SessionTestSuite) TearDownTest() {
	s.session.Close()
}

func (s *SessionTestSuite) expectConfirm(effect Effect, err error, title string) actions.Review {
	s.Require().NoError(err)
	confirm, ok := effect.(RequestConfirm)
	s.Require().True(ok, "expected RequestConfirm, got %T", effect)
	s.Require().Equal(title, confirm.Review.Title)
	return confirm.Review
}

func (s *SessionTestSuite) expectAction(effect Effect, err error, remaining uint32) {
	s.Require().NoError(err)
	req, ok := effect.(RequestAction)
	s.Require().True(ok, "expected RequestAction, got %T", effect)
	s.Require().Equal(remaining, req.RemainingBytesHint)
}

func (s *SessionTestSuite) expectType(err error, want protocol.ErrorType) {
	s.Require().Error(err)
	s.Equal(want, protocol.TypeOf(err), "error: %v", err)
	s.Equal(StateAborted, s.session.State())
}

// startAndApprove 从 Start 推进到第一个动作请求
func (s *SessionTestSuite) startAndApprove(numActions uint32) {
	effect, err := s.session.Start(testRequest(numActions))
	review := s.expectConfirm(effect, err, "Sign transaction")
	s.Equal([]actions.Field{{Label: "Actions", Value: strconv.FormatUint(uint64(numActions), 10)}}, review.Fields)

	effect, err = s.session.OnConfirm(true)
	s.expectAction(effect, err, 0)
	s.Equal(StateAwaitingAction, s.session.State())
}

func (s *SessionTestSuite) TestGoldenTransfer() {
	s.startAndApprove(1)

	effect, err := s.session.OnAction(transferAction())
	review := s.expectConfirm(effect, err, "Transfer")
	s.Equal([]actions.Field{
		{Label: "Sender", Value: "alice"},
		{Label: "Receiver", Value: "bob"},
		{Label: "Amount", Value: "1.0000 EOS"},
		{Label: "Memo", Value: "test"},
	}, review.Fields)

	effect, err = s.session.OnConfirm(true)
	s.Require().NoError(err)
	completed, ok := effect.(Completed)
	s.Require().True(ok)

	s.Equal(transferDigestHex, hex.EncodeToString(s.session.Digest()))
	s.Equal(transferSigHex, hex.EncodeToString(completed.Signature.Bytes()))
	s.Equal(StateDone, s.session.State())

	_, err = s.keychain.Derive(key.EOSPath(0), key.CurveSecp256k1)
	s.ErrorIs(err, key.ErrKeychainClosed)
}

func (s *SessionTestSuite) TestGoldenTransferAndChunkedUnknown() {
	s.startAndApprove(2)

	effect, err := s.session.OnAction(transferAction())
	s.expectConfirm(effect, err, "Transfer")
	effect, err = s.session.OnConfirm(true)
	s.expectAction(effect, err, 0)

	payload := tenBytes()
	effect, err = s.session.OnAction(unknownAction(10, payload[:3]))
	s.expectAction(effect, err, 7)
	effect, err = s.session.OnAction(chunkAction(payload[3:6]))
	s.expectAction(effect, err, 4)
	effect, err = s.session.OnAction(chunkAction(payload[6:]))
	review := s.expectConfirm(effect, err, "dosomething Action")
	s.Equal([]actions.Field{
		{Label: "Contract", Value: "somecontract"},
		{Label: "Size", Value: "10 bytes"},
		{Label: "Checksum", Value: tenByteChecksum},
	}, review.Fields)

	effect, err = s.session.OnConfirm(true)
	s.Require().NoError(err)
	completed, ok := effect.(Completed)
	s.Require().True(ok)

	s.Equal(mixedDigestHex, hex.EncodeToString(s.session.Digest()))
	s.Equal(mixedSigHex, hex.EncodeToString(completed.Signature.Bytes()))
}

func (s *SessionTestSuite) TestUnknownOverflow() {
	s.startAndApprove(1)

	payload := append(tenBytes(), 0xff)
	effect, err := s.session.OnAction(unknownAction(10, payload[:3]))
	s.expectAction(effect, err, 7)
	effect, err = s.session.OnAction(chunkAction(payload[3:6]))
	s.expectAction(effect, err, 4)

	_, err = s.session.OnAction(chunkAction(payload[6:]))
	s.expectType(err, protocol.ErrTypeBufferOverflow)
}

func (s *SessionTestSuite) TestUnknownFirstChunkOverflow() {
	s.startAndApprove(1)

	_, err := s.session.OnAction(unknownAction(2, []byte{1, 2, 3}))
	s.expectType(err, protocol.ErrTypeBufferOverflow)
}

func (s *SessionTestSuite) TestChunkOfWrongShape() {
	s.startAndApprove(1)

	effect, err := s.session.OnAction(unknownAction(10, []byte{0, 1, 2}))
	s.expectAction(effect, err, 7)

	_, err = s.session.OnAction(transferAction())
	s.expectType(err, protocol.ErrTypeProtocolViolation)
}

func (s *SessionTestSuite) TestAntiSpoofing() {
	s.startAndApprove(1)

	spoofed := transferAction()
	spoofed.Payload = &actions.BuyRAM{Payer: alice, Receiver: bob, Quantity: actions.Asset{Amount: 1, Symbol: eos4}}

	_, err := s.session.OnAction(spoofed)
	s.expectType(err, protocol.ErrTypeProtocolViolation)
	s.ErrorIs(err, actions.ErrContractMismatch)
}

func (s *SessionTestSuite) TestMissingPayload() {
	s.startAndApprove(1)

	_, err := s.session.OnAction(&actions.Action{Common: transferAction().Common})
	s.expectType(err, protocol.ErrTypeProtocolViolation)
}

func (s *SessionTestSuite) TestRejectTransaction() {
	effect, err := s.session.Start(testRequest(1))
	s.expectConfirm(effect, err, "Sign transaction")

	_, err = s.session.OnConfirm(false)
	s.expectType(err, protocol.ErrTypeUserRejected)

	_, err = s.keychain.Derive(key.EOSPath(0), key.CurveSecp256k1)
	s.ErrorIs(err, key.ErrKeychainClosed)
}

func (s *SessionTestSuite) TestRejectAction() {
	s.startAndApprove(1)

	effect, err := s.session.OnAction(transferAction())
	s.expectConfirm(effect, err, "Transfer")

	_, err = s.session.OnConfirm(false)
	s.expectType(err, protocol.ErrTypeUserRejected)

	_, err = s.session.OnAction(transferAction())
	s.Error(err)
}

func (s *SessionTestSuite) TestInvalidRequests() {
	tests := []struct {
		name    string
		mutate  func(*SignRequest)
		message string
	}{
		{name: "no chain id", mutate: func(r *SignRequest) { r.ChainID = nil }, message: "no chain id"},
		{name: "short chain id", mutate: func(r *SignRequest) { r.ChainID = r.ChainID[:31] }, message: "chain id must be 32 bytes"},
		{name: "no header", mutate: func(r *SignRequest) { r.Header = nil }, message: "no header"},
		{name: "no actions", mutate: func(r *SignRequest) { r.NumActions = 0 }, message: "no actions"},
		{name: "no path", mutate: func(r *SignRequest) { r.AddressN = nil }, message: "no address path"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			req := testRequest(1)
			tt.mutate(req)

			_, err := s.session.Start(req)
			s.expectType(err, protocol.ErrTypeData)

			var pe *protocol.ProtocolError
			s.Require().ErrorAs(err, &pe)
			s.Equal(tt.message, pe.Message)
			s.deriver.AssertNotCalled(s.T(), "FromSeed", key.CurveSecp256k1)
		})
	}
}

func (s *SessionTestSuite) TestNilRequest() {
	_, err := s.session.Start(nil)
	s.expectType(err, protocol.ErrTypeData)
}

func (s *SessionTestSuite) TestNonStandardPathNeedsConfirmation() {
	req := testRequest(1)
	req.AddressN = []uint32{44 | key.HardenedOffset, 194 | key.HardenedOffset, 0 | key.HardenedOffset, 1, 5}

	effect, err := s.session.Start(req)
	review := s.expectConfirm(effect, err, "Wrong address path")
	s.Equal("m/44'/194'/0'/1/5", review.Fields[0].Value)
	s.deriver.AssertNotCalled(s.T(), "FromSeed", key.CurveSecp256k1)

	effect, err = s.session.OnConfirm(true)
	s.expectConfirm(effect, err, "Sign transaction")
	s.deriver.AssertNumberOfCalls(s.T(), "FromSeed", 1)
}

func (s *SessionTestSuite) TestNonStandardPathRejected() {
	req := testRequest(1)
	req.AddressN = []uint32{44 | key.HardenedOffset, 194 | key.HardenedOffset, 0 | key.HardenedOffset, 1, 5}

	effect, err := s.session.Start(req)
	s.expectConfirm(effect, err, "Wrong address path")

	_, err = s.session.OnConfirm(false)
	s.expectType(err, protocol.ErrTypeUserRejected)
	s.deriver.AssertNotCalled(s.T(), "FromSeed", key.CurveSecp256k1)
}

func (s *SessionTestSuite) TestForbiddenPath() {
	req := testRequest(1)
	req.AddressN = []uint32{44 | key.HardenedOffset, 60 | key.HardenedOffset, 0 | key.HardenedOffset, 0, 0}

	effect, err := s.session.Start(req)
	s.expectConfirm(effect, err, "Wrong address path")

	_, err = s.session.OnConfirm(true)
	s.expectType(err, protocol.ErrTypeData)
	s.ErrorIs(err, key.ErrForbiddenPath)
}

func (s *SessionTestSuite) TestOutOfOrderInput() {
	_, err := s.session.OnAction(transferAction())
	s.expectType(err, protocol.ErrTypeProtocolViolation)

	s.SetupTest()
	s.startAndApprove(1)
	_, err = s.session.OnConfirm(true)
	s.expectType(err, protocol.ErrTypeProtocolViolation)

	s.SetupTest()
	effect, err := s.session.Start(testRequest(1))
	s.expectConfirm(effect, err, "Sign transaction")
	_, err = s.session.Start(testRequest(1))
	s.expectType(err, protocol.ErrTypeProtocolViolation)
}

func (s *SessionTestSuite) TestCloseAbortsAndIsIdempotent() {
	s.startAndApprove(1)

	s.session.Close()
	s.Equal(StateAborted, s.session.State())
	s.session.Close()
	s.Equal(StateAborted, s.session.State())

	_, err := s.session.OnAction(transferAction())
	s.Error(err)
}

func TestStateTerminal(t *testing.T) {
	require.True(t, StateDone.Terminal())
	require.True(t, StateAborted.Terminal())
	require.False(t, StateAwaitingAction.Terminal())
	require.Equal(t, "awaiting_action", StateAwaitingAction.String())
}

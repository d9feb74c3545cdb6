package actions

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/kashguard/go-eos-signer/internal/eos/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice  = codec.MustName("alice")
	bob    = codec.MustName("bob")
	active = codec.MustName("active")
	eos4   = uint64(0x534f4504)
)

func samplePayloads() map[Kind]Payload {
	return map[Kind]Payload{
		KindTransfer:     &Transfer{Sender: alice, Receiver: bob, Quantity: Asset{Amount: 10000, Symbol: eos4}, Memo: "hi"},
		KindBuyRAM:       &BuyRAM{Payer: alice, Receiver: bob, Quantity: Asset{Amount: 1, Symbol: eos4}},
		KindBuyRAMBytes:  &BuyRAMBytes{Payer: alice, Receiver: bob, Bytes: 8192},
		KindSellRAM:      &SellRAM{Account: alice, Bytes: 4096},
		KindDelegate:     &Delegate{Sender: alice, Receiver: bob, NetQuantity: Asset{Amount: 1, Symbol: eos4}, CPUQuantity: Asset{Amount: 2, Symbol: eos4}},
		KindUndelegate:   &Undelegate{Sender: alice, Receiver: bob, NetQuantity: Asset{Amount: 1, Symbol: eos4}, CPUQuantity: Asset{Amount: 2, Symbol: eos4}},
		KindRefund:       &Refund{Owner: alice},
		KindVoteProducer: &VoteProducer{Voter: alice, Producers: []uint64{bob}},
		KindUpdateAuth:   &UpdateAuth{Account: alice, Permission: active, Parent: codec.MustName("owner"), Auth: Authority{Threshold: 1}},
		KindDeleteAuth:   &DeleteAuth{Account: alice, Permission: active},
		KindLinkAuth:     &LinkAuth{Account: alice, Code: SystemAccount, Type: TransferName, Requirement: active},
		KindUnlinkAuth:   &UnlinkAuth{Account: alice, Code: SystemAccount, Type: TransferName},
		KindNewAccount:   &NewAccount{Creator: alice, Name: bob, Owner: Authority{Threshold: 1}, Active: Authority{Threshold: 1}},
		KindUnknown:      &Unknown{DataSize: 3, DataChunk: []byte{1, 2, 3}},
	}
}

func TestEveryKindHasAVariant(t *testing.T) {
	payloads := samplePayloads()
	require.Len(t, payloads, len(AllKinds))

	for _, k := range AllKinds {
		p, ok := payloads[k]
		require.True(t, ok, k.String())
		assert.Equal(t, k, p.Kind())
		assert.NotEqual(t, "invalid", k.String())

		if k == KindUnknown {
			_, known := p.(KnownPayload)
			assert.False(t, known)
			continue
		}

		_, ok = knownContracts[k]
		assert.True(t, ok, "no contract for %s", k)
		_, known := p.(KnownPayload)
		assert.True(t, known, "%s must be a known payload", k)
	}
}

func TestValidateAcceptsOwnContract(t *testing.T) {
	for k, p := range samplePayloads() {
		common := Common{Account: SystemAccount}
		if c, ok := knownContracts[k]; ok {
			common.Name = c.name
			if k == KindTransfer {
				common.Account = codec.MustName("eosio.token")
			}
		} else {
			common.Account = codec.MustName("somecontract")
			common.Name = codec.MustName("dosomething")
		}

		assert.NoError(t, Validate(&Action{Common: common, Payload: p}), k.String())
	}
}

func TestValidateAntiSpoofing(t *testing.T) {
	token := codec.MustName("eosio.token")

	t.Run("transfer pair with buy_ram payload", func(t *testing.T) {
		a := &Action{
			Common:  Common{Account: token, Name: TransferName},
			Payload: &BuyRAM{Payer: alice, Receiver: bob, Quantity: Asset{Amount: 1, Symbol: eos4}},
		}
		err := Validate(a)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrContractMismatch)
	})

	t.Run("transfer pair with transfer payload", func(t *testing.T) {
		a := &Action{
			Common:  Common{Account: token, Name: TransferName},
			Payload: &Transfer{Sender: alice, Receiver: bob, Quantity: Asset{Amount: 1, Symbol: eos4}},
		}
		assert.NoError(t, Validate(a))
	})

	t.Run("transfer on a custom token contract", func(t *testing.T) {
		a := &Action{
			Common:  Common{Account: codec.MustName("mytokenissue"), Name: TransferName},
			Payload: &Transfer{Sender: alice, Receiver: bob},
		}
		assert.NoError(t, Validate(a))
	})

	t.Run("system action on another contract", func(t *testing.T) {
		a := &Action{
			Common:  Common{Account: codec.MustName("fakeeosio"), Name: codec.MustName("buyram")},
			Payload: &BuyRAM{Payer: alice, Receiver: bob},
		}
		assert.ErrorIs(t, Validate(a), ErrContractMismatch)
	})

	t.Run("transfer payload under another name", func(t *testing.T) {
		a := &Action{
			Common:  Common{Account: token, Name: codec.MustName("issue")},
			Payload: &Transfer{Sender: alice, Receiver: bob},
		}
		assert.ErrorIs(t, Validate(a), ErrContractMismatch)
	})

	t.Run("unknown under a known pair", func(t *testing.T) {
		a := &Action{
			Common:  Common{Account: token, Name: TransferName},
			Payload: &Unknown{DataSize: 1, DataChunk: []byte{0}},
		}
		assert.NoError(t, Validate(a))
	})

	t.Run("missing payload", func(t *testing.T) {
		assert.ErrorIs(t, Validate(&Action{Common: Common{Account: token, Name: TransferName}}), ErrMissingPayload)
		assert.ErrorIs(t, Validate(&Action{Payload: (*Transfer)(nil)}), ErrMissingPayload)
		assert.ErrorIs(t, Validate(nil), ErrMissingPayload)
	})

	t.Run("authority key of wrong size", func(t *testing.T) {
		a := &Action{
			Common: Common{Account: SystemAccount, Name: codec.MustName("updateauth")},
			Payload: &UpdateAuth{Account: alice, Permission: active, Auth: Authority{
				Threshold: 1,
				Keys:      []KeyWeight{{Key: []byte{0x02, 0x01}, Weight: 1}},
			}},
		}
		assert.ErrorIs(t, Validate(a), ErrMalformedPayload)
	})
}

func TestCommonEncode(t *testing.T) {
	c := Common{
		Account:       codec.MustName("eosio.token"),
		Name:          TransferName,
		Authorization: []PermissionLevel{{Actor: alice, Permission: active}},
	}

	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	c.Encode(w)
	require.NoError(t, w.Err())

	assert.Equal(t,
		"00a6823403ea3055"+"000000572d3ccdcd"+"01"+"0000000000855c34"+"00000000a8ed3232",
		hex.EncodeToString(buf.Bytes()))
	assert.Equal(t, "alice@active", c.Authorization[0].String())
}

func TestEncodeData(t *testing.T) {
	tests := []struct {
		name     string
		payload  KnownPayload
		expected string
	}{
		{
			name:    "transfer",
			payload: &Transfer{Sender: alice, Receiver: bob, Quantity: Asset{Amount: 10000, Symbol: eos4}, Memo: "hi"},
			expected: "0000000000855c34" + "0000000000000e3d" +
				"1027000000000000" + "04454f5300000000" + "026869",
		},
		{
			name:     "buy ram bytes",
			payload:  &BuyRAMBytes{Payer: alice, Receiver: bob, Bytes: 8192},
			expected: "0000000000855c34" + "0000000000000e3d" + "00200000",
		},
		{
			name:     "sell ram",
			payload:  &SellRAM{Account: alice, Bytes: 1},
			expected: "0000000000855c34" + "0100000000000000",
		},
		{
			name:    "delegate with transfer",
			payload: &Delegate{Sender: alice, Receiver: bob, NetQuantity: Asset{Amount: 1, Symbol: eos4}, CPUQuantity: Asset{Amount: 2, Symbol: eos4}, Transfer: true},
			expected: "0000000000855c34" + "0000000000000e3d" +
				"0100000000000000" + "04454f5300000000" +
				"0200000000000000" + "04454f5300000000" + "01",
		},
		{
			name:     "vote producers",
			payload:  &VoteProducer{Voter: alice, Producers: []uint64{bob}},
			expected: "0000000000855c34" + "0000000000000000" + "01" + "0000000000000e3d",
		},
		{
			name: "update auth",
			payload: &UpdateAuth{Account: alice, Permission: active, Parent: codec.MustName("owner"), Auth: Authority{
				Threshold: 1,
				Keys:      []KeyWeight{{Key: bytes.Repeat([]byte{0x02}, 33), Weight: 1}},
				Accounts:  []PermissionLevelWeight{{Account: PermissionLevel{Actor: bob, Permission: active}, Weight: 1}},
				Waits:     []WaitWeight{{WaitSec: 60, Weight: 1}},
			}},
			expected: "0000000000855c34" + "00000000a8ed3232" + "0000000080ab26a7" +
				"01000000" +
				"01" + "00" + strings.Repeat("02", 33) + "0100" +
				"01" + "0000000000000e3d" + "00000000a8ed3232" + "0100" +
				"01" + "3c000000" + "0100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeData(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, hex.EncodeToString(data))
		})
	}
}

func TestReview(t *testing.T) {
	t.Run("transfer", func(t *testing.T) {
		r, err := (&Transfer{Sender: alice, Receiver: bob, Quantity: Asset{Amount: 150000, Symbol: eos4}, Memo: "thanks"}).Review(Common{})
		require.NoError(t, err)
		assert.Equal(t, Review{Title: "Transfer", Fields: []Field{
			{Label: "Sender", Value: "alice"},
			{Label: "Receiver", Value: "bob"},
			{Label: "Amount", Value: "15.0000 EOS"},
			{Label: "Memo", Value: "thanks"},
		}}, r)
	})

	t.Run("memo is truncated", func(t *testing.T) {
		r, err := (&Transfer{Memo: strings.Repeat("x", MaxMemoDisplay+10)}).Review(Common{})
		require.NoError(t, err)
		assert.Len(t, r.Fields[3].Value, MaxMemoDisplay)
	})

	t.Run("vote variants", func(t *testing.T) {
		r, _ := (&VoteProducer{Voter: alice, Proxy: bob}).Review(Common{})
		assert.Equal(t, "Vote for proxy", r.Title)

		r, _ = (&VoteProducer{Voter: alice, Producers: []uint64{bob, alice}}).Review(Common{})
		assert.Equal(t, "Vote for producers", r.Title)
		assert.Equal(t, Field{Label: " 2.", Value: "alice"}, r.Fields[2])

		r, _ = (&VoteProducer{Voter: alice}).Review(Common{})
		assert.Equal(t, "Cancel vote", r.Title)
	})

	t.Run("delegate with transfer", func(t *testing.T) {
		r, _ := (&Delegate{Sender: alice, Receiver: bob, Transfer: true}).Review(Common{})
		assert.Equal(t, Field{Label: "Transfer to", Value: "bob"}, r.Fields[len(r.Fields)-1])
	})

	t.Run("authority keys", func(t *testing.T) {
		key, _ := hex.DecodeString("02c0ded2bc1f1305fb0faac5e6c03ee3a1924234985427b6167ca569d13df435cf")
		r, err := (&NewAccount{
			Creator: alice,
			Name:    bob,
			Owner:   Authority{Threshold: 1, Keys: []KeyWeight{{Key: key, Weight: 1}}},
			Active:  Authority{Threshold: 2, Waits: []WaitWeight{{WaitSec: 30, Weight: 1}}},
		}).Review(Common{})
		require.NoError(t, err)
		assert.Contains(t, r.Fields, Field{Label: "Owner Key #1", Value: "EOS6MRyAjQq8ud7hVNYcfnVPJqcVpscN5So8BhtHuGYqET5GDW5CV"})
		assert.Contains(t, r.Fields, Field{Label: "Active Threshold", Value: "2"})
		assert.Contains(t, r.Fields, Field{Label: "Active Delay #1", Value: "30 sec"})
	})

	t.Run("unknown", func(t *testing.T) {
		r := UnknownReview(Common{Account: codec.MustName("somecontract"), Name: codec.MustName("dosomething")}, 10, []byte{0xab, 0xcd})
		assert.Equal(t, "dosomething Action", r.Title)
		assert.Equal(t, []Field{
			{Label: "Contract", Value: "somecontract"},
			{Label: "Size", Value: "10 bytes"},
			{Label: "Checksum", Value: "abcd"},
		}, r.Fields)
	})
}

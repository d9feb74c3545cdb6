package host

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kashguard/go-eos-signer/internal/eos/actions"
	"github.com/kashguard/go-eos-signer/internal/eos/codec"
	"github.com/kashguard/go-eos-signer/internal/infra/signing"
	"github.com/pkg/errors"
)

const expirationLayout = "2006-01-02T15:04:05"

// Transaction 从交易文件解析出的签名请求与动作列表
type Transaction struct {
	Request *signing.SignRequest
	Actions []*actions.Action
}

type txFile struct {
	ChainID string       `json:"chain_id" validate:"required,len=64,hexadecimal"`
	Header  headerFile   `json:"header"`
	Actions []actionFile `json:"actions" validate:"required,min=1,dive"`
}

type headerFile struct {
	Expiration       expiration `json:"expiration"`
	RefBlockNum      uint16     `json:"ref_block_num"`
	RefBlockPrefix   uint32     `json:"ref_block_prefix"`
	MaxNetUsageWords uint32     `json:"max_net_usage_words"`
	MaxCPUUsageMs    uint8      `json:"max_cpu_usage_ms"`
	DelaySec         uint32     `json:"delay_sec"`
}

type actionFile struct {
	Account       string            `json:"account" validate:"required"`
	Name          string            `json:"name" validate:"required"`
	Authorization []permissionLevel `json:"authorization"`
	Data          json.RawMessage   `json:"data"`
	HexData       string            `json:"hex_data" validate:"omitempty,hexadecimal"`
}

// name 账户名字符串
type name uint64

func (n *name) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := codec.StringToName(s)
	if err != nil {
		return err
	}
	*n = name(v)
	return nil
}

// asset "1.0000 EOS" 形式
type asset actions.Asset

func (a *asset) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	amount, symbol, err := codec.ParseAsset(s)
	if err != nil {
		return err
	}
	*a = asset{Amount: amount, Symbol: symbol}
	return nil
}

// expiration 接受 unix 秒或 "2006-01-02T15:04:05" (UTC)
type expiration uint32

func (e *expiration) UnmarshalJSON(b []byte) error {
	var secs uint32
	if err := json.Unmarshal(b, &secs); err == nil {
		*e = expiration(secs)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "expiration must be unix seconds or a timestamp")
	}
	t, err := time.ParseInLocation(expirationLayout, s, time.UTC)
	if err != nil {
		return errors.Wrapf(err, "invalid expiration %q", s)
	}
	*e = expiration(t.Unix())
	return nil
}

type permissionLevel struct {
	Actor      name `json:"actor"`
	Permission name `json:"permission"`
}

type authority struct {
	Threshold uint32 `json:"threshold"`
	Keys      []struct {
		Key    string `json:"key"`
		Weight uint16 `json:"weight"`
	} `json:"keys"`
	Accounts []struct {
		Permission permissionLevel `json:"permission"`
		Weight     uint16          `json:"weight"`
	} `json:"accounts"`
	Waits []struct {
		WaitSec uint32 `json:"wait_sec"`
		Weight  uint16 `json:"weight"`
	} `json:"waits"`
}

func (a authority) toAuthority() (actions.Authority, error) {
	out := actions.Authority{Threshold: a.Threshold}
	for _, k := range a.Keys {
		key, err := codec.StringToPublicKey(k.Key)
		if err != nil {
			return actions.Authority{}, err
		}
		out.Keys = append(out.Keys, actions.KeyWeight{Key: key, Weight: k.Weight})
	}
	for _, acc := range a.Accounts {
		out.Accounts = append(out.Accounts, actions.PermissionLevelWeight{
			Account: actions.PermissionLevel{Actor: uint64(acc.Permission.Actor), Permission: uint64(acc.Permission.Permission)},
			Weight:  acc.Weight,
		})
	}
	for _, w := range a.Waits {
		out.Waits = append(out.Waits, actions.WaitWeight{WaitSec: w.WaitSec, Weight: w.Weight})
	}
	return out, nil
}

// LoadTransaction 读取并解析交易文件
func LoadTransaction(path string, addressN []uint32) (*Transaction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read transaction file %s", path)
	}
	return ParseTransaction(raw, addressN)
}

// ParseTransaction 解析 JSON 交易
// 已知动作按 data 字段解析，其余动作必须提供 hex_data，作为未知动作逐段发送
func ParseTransaction(raw []byte, addressN []uint32) (*Transaction, error) {
	var f txFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrap(err, "failed to decode transaction")
	}
	if err := validator.New().Struct(&f); err != nil {
		return nil, errors.Wrap(err, "invalid transaction")
	}

	chainID, err := hex.DecodeString(f.ChainID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid chain id")
	}

	tx := &Transaction{
		Request: &signing.SignRequest{
			ChainID: chainID,
			Header: &signing.Header{
				Expiration:       uint32(f.Header.Expiration),
				RefBlockNum:      f.Header.RefBlockNum,
				RefBlockPrefix:   f.Header.RefBlockPrefix,
				MaxNetUsageWords: f.Header.MaxNetUsageWords,
				MaxCPUUsageMs:    f.Header.MaxCPUUsageMs,
				DelaySec:         f.Header.DelaySec,
			},
			NumActions: uint32(len(f.Actions)),
			AddressN:   addressN,
		},
	}

	for i, af := range f.Actions {
		a, err := af.toAction()
		if err != nil {
			return nil, errors.Wrapf(err, "action #%d (%s::%s)", i+1, af.Account, af.Name)
		}
		tx.Actions = append(tx.Actions, a)
	}
	return tx, nil
}

func (af actionFile) toAction() (*actions.Action, error) {
	account, err := codec.StringToName(af.Account)
	if err != nil {
		return nil, err
	}
	actionName, err := codec.StringToName(af.Name)
	if err != nil {
		return nil, err
	}

	a := &actions.Action{Common: actions.Common{Account: account, Name: actionName}}
	for _, p := range af.Authorization {
		a.Common.Authorization = append(a.Common.Authorization, actions.PermissionLevel{
			Actor:      uint64(p.Actor),
			Permission: uint64(p.Permission),
		})
	}

	if af.HexData != "" {
		data, err := hex.DecodeString(af.HexData)
		if err != nil {
			return nil, errors.Wrap(err, "invalid hex_data")
		}
		a.Payload = &actions.Unknown{DataSize: uint32(len(data)), DataChunk: data}
		return a, nil
	}

	if len(af.Data) == 0 {
		return nil, errors.New("action needs data or hex_data")
	}

	payload, err := decodePayload(account, af.Name, af.Data)
	if err != nil {
		return nil, err
	}
	a.Payload = payload
	return a, nil
}

func decodePayload(account uint64, actionName string, data json.RawMessage) (actions.Payload, error) {
	if actionName == "transfer" {
		var v struct {
			From     name   `json:"from"`
			To       name   `json:"to"`
			Quantity asset  `json:"quantity"`
			Memo     string `json:"memo"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &actions.Transfer{Sender: uint64(v.From), Receiver: uint64(v.To), Quantity: actions.Asset(v.Quantity), Memo: v.Memo}, nil
	}

	if account != actions.SystemAccount {
		return nil, errors.New("unknown contract action needs hex_data")
	}

	switch actionName {
	case "buyram":
		var v struct {
			Payer    name  `json:"payer"`
			Receiver name  `json:"receiver"`
			Quant    asset `json:"quant"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &actions.BuyRAM{Payer: uint64(v.Payer), Receiver: uint64(v.Receiver), Quantity: actions.Asset(v.Quant)}, nil
	case "buyrambytes":
		var v struct {
			Payer    name   `json:"payer"`
			Receiver name   `json:"receiver"`
			Bytes    uint32 `json:"bytes"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &actions.BuyRAMBytes{Payer: uint64(v.Payer), Receiver: uint64(v.Receiver), Bytes: v.Bytes}, nil
	case "sellram":
		var v struct {
			Account name   `json:"account"`
			Bytes   uint64 `json:"bytes"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &actions.SellRAM{Account: uint64(v.Account), Bytes: v.Bytes}, nil
	case "delegatebw":
		var v struct {
			From     name  `json:"from"`
			Receiver name  `json:"receiver"`
			Net      asset `json:"stake_net_quantity"`
			CPU      asset `json:"stake_cpu_quantity"`
			Transfer bool  `json:"transfer"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &actions.Delegate{
			Sender:      uint64(v.From),
			Receiver:    uint64(v.Receiver),
			NetQuantity: actions.Asset(v.Net),
			CPUQuantity: actions.Asset(v.CPU),
			Transfer:    v.Transfer,
		}, nil
	case "undelegatebw":
		var v struct {
			From     name  `json:"from"`
			Receiver name  `json:"receiver"`
			Net      asset `json:"unstake_net_quantity"`
			CPU      asset `json:"unstake_cpu_quantity"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &actions.Undelegate{
			Sender:      uint64(v.From),
			Receiver:    uint64(v.Receiver),
			NetQuantity: actions.Asset(v.Net),
			CPUQuantity: actions.Asset(v.CPU),
		}, nil
	case "refund":
		var v struct {
			Owner name `json:"owner"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &actions.Refund{Owner: uint64(v.Owner)}, nil
	case "voteproducer":
		var v struct {
			Voter     name   `json:"voter"`
			Proxy     string `json:"proxy"`
			Producers []name `json:"producers"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		out := &actions.VoteProducer{Voter: uint64(v.Voter)}
		if v.Proxy != "" {
			proxy, err := codec.StringToName(v.Proxy)
			if err != nil {
				return nil, err
			}
			out.Proxy = proxy
		}
		for _, p := range v.Producers {
			out.Producers = append(out.Producers, uint64(p))
		}
		return out, nil
	case "updateauth":
		var v struct {
			Account    name      `json:"account"`
			Permission name      `json:"permission"`
			Parent     name      `json:"parent"`
			Auth       authority `json:"auth"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		auth, err := v.Auth.toAuthority()
		if err != nil {
			return nil, err
		}
		return &actions.UpdateAuth{Account: uint64(v.Account), Permission: uint64(v.Permission), Parent: uint64(v.Parent), Auth: auth}, nil
	case "deleteauth":
		var v struct {
			Account    name `json:"account"`
			Permission name `json:"permission"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &actions.DeleteAuth{Account: uint64(v.Account), Permission: uint64(v.Permission)}, nil
	case "linkauth":
		var v struct {
			Account     name `json:"account"`
			Code        name `json:"code"`
			Type        name `json:"type"`
			Requirement name `json:"requirement"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &actions.LinkAuth{Account: uint64(v.Account), Code: uint64(v.Code), Type: uint64(v.Type), Requirement: uint64(v.Requirement)}, nil
	case "unlinkauth":
		var v struct {
			Account name `json:"account"`
			Code    name `json:"code"`
			Type    name `json:"type"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &actions.UnlinkAuth{Account: uint64(v.Account), Code: uint64(v.Code), Type: uint64(v.Type)}, nil
	case "newaccount":
		var v struct {
			Creator name      `json:"creator"`
			Name    name      `json:"name"`
			Owner   authority `json:"owner"`
			Active  authority `json:"active"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		owner, err := v.Owner.toAuthority()
		if err != nil {
			return nil, err
		}
		active, err := v.Active.toAuthority()
		if err != nil {
			return nil, err
		}
		return &actions.NewAccount{Creator: uint64(v.Creator), Name: uint64(v.Name), Owner: owner, Active: active}, nil
	default:
		return nil, errors.Errorf("eosio action %s needs hex_data", actionName)
	}
}

// FormatSignature 以 JSON 形式输出签名结果
func FormatSignature(sig *signing.Signature) map[string]string {
	return map[string]string{
		"signature":    sig.String(),
		"recovery":     strconv.Itoa(int(sig.V)),
		"signature_r":  hex.EncodeToString(sig.R[:]),
		"signature_s":  hex.EncodeToString(sig.S[:]),
		"signature_65": hex.EncodeToString(sig.Bytes()),
	}
}

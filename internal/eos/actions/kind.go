package actions

import (
	"github.com/kashguard/go-eos-signer/internal/eos/codec"
)

// Kind 动作实际填充的变体
type Kind int

const (
	KindTransfer Kind = iota
	KindBuyRAM
	KindBuyRAMBytes
	KindSellRAM
	KindDelegate
	KindUndelegate
	KindRefund
	KindVoteProducer
	KindUpdateAuth
	KindDeleteAuth
	KindLinkAuth
	KindUnlinkAuth
	KindNewAccount
	KindUnknown
)

// AllKinds 按声明顺序列出全部变体
var AllKinds = []Kind{
	KindTransfer,
	KindBuyRAM,
	KindBuyRAMBytes,
	KindSellRAM,
	KindDelegate,
	KindUndelegate,
	KindRefund,
	KindVoteProducer,
	KindUpdateAuth,
	KindDeleteAuth,
	KindLinkAuth,
	KindUnlinkAuth,
	KindNewAccount,
	KindUnknown,
}

func (k Kind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"
	case KindBuyRAM:
		return "buy_ram"
	case KindBuyRAMBytes:
		return "buy_ram_bytes"
	case KindSellRAM:
		return "sell_ram"
	case KindDelegate:
		return "delegate"
	case KindUndelegate:
		return "undelegate"
	case KindRefund:
		return "refund"
	case KindVoteProducer:
		return "vote_producer"
	case KindUpdateAuth:
		return "update_auth"
	case KindDeleteAuth:
		return "delete_auth"
	case KindLinkAuth:
		return "link_auth"
	case KindUnlinkAuth:
		return "unlink_auth"
	case KindNewAccount:
		return "new_account"
	case KindUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

var (
	// SystemAccount 除 transfer 外所有已知动作所属合约
	SystemAccount = codec.MustName("eosio")
	// TransferName 任意合约上的 transfer
	TransferName = codec.MustName("transfer")
)

// contract 已知变体对应的 (account, name)，account 为 0 时匹配任意合约
type contract struct {
	account uint64
	name    uint64
}

var knownContracts = map[Kind]contract{
	KindTransfer:     {name: TransferName},
	KindBuyRAM:       {account: SystemAccount, name: codec.MustName("buyram")},
	KindBuyRAMBytes:  {account: SystemAccount, name: codec.MustName("buyrambytes")},
	KindSellRAM:      {account: SystemAccount, name: codec.MustName("sellram")},
	KindDelegate:     {account: SystemAccount, name: codec.MustName("delegatebw")},
	KindUndelegate:   {account: SystemAccount, name: codec.MustName("undelegatebw")},
	KindRefund:       {account: SystemAccount, name: codec.MustName("refund")},
	KindVoteProducer: {account: SystemAccount, name: codec.MustName("voteproducer")},
	KindUpdateAuth:   {account: SystemAccount, name: codec.MustName("updateauth")},
	KindDeleteAuth:   {account: SystemAccount, name: codec.MustName("deleteauth")},
	KindLinkAuth:     {account: SystemAccount, name: codec.MustName("linkauth")},
	KindUnlinkAuth:   {account: SystemAccount, name: codec.MustName("unlinkauth")},
	KindNewAccount:   {account: SystemAccount, name: codec.MustName("newaccount")},
}

func (c contract) matches(common Common) bool {
	if c.account != 0 && c.account != common.Account {
		return false
	}
	return c.name == common.Name
}

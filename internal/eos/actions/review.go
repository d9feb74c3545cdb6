package actions

import (
	"encoding/hex"
	"fmt"

	"github.com/kashguard/go-eos-signer/internal/eos/codec"
)

// MaxMemoDisplay 屏幕上显示的 memo 最大字符数
const MaxMemoDisplay = 512

// Field 确认页中的一行
type Field struct {
	Label string
	Value string
}

// Review 请求用户确认的内容
type Review struct {
	Title  string
	Fields []Field
}

func (r *Review) add(label, value string) {
	r.Fields = append(r.Fields, Field{Label: label, Value: value})
}

func (r *Review) addName(label string, value uint64) {
	r.add(label, codec.NameToString(value))
}

func (a *Transfer) Review(Common) (Review, error) {
	r := Review{Title: "Transfer"}
	r.addName("Sender", a.Sender)
	r.addName("Receiver", a.Receiver)
	r.add("Amount", a.Quantity.String())
	if a.Memo != "" {
		r.add("Memo", truncate(a.Memo, MaxMemoDisplay))
	}
	return r, nil
}

func (a *BuyRAM) Review(Common) (Review, error) {
	r := Review{Title: "Buy RAM"}
	r.addName("Payer", a.Payer)
	r.addName("Receiver", a.Receiver)
	r.add("Amount", a.Quantity.String())
	return r, nil
}

func (a *BuyRAMBytes) Review(Common) (Review, error) {
	r := Review{Title: "Buy RAM"}
	r.addName("Payer", a.Payer)
	r.addName("Receiver", a.Receiver)
	r.add("Bytes", uintString(uint64(a.Bytes)))
	return r, nil
}

func (a *SellRAM) Review(Common) (Review, error) {
	r := Review{Title: "Sell RAM"}
	r.addName("Receiver", a.Account)
	r.add("Bytes", uintString(a.Bytes))
	return r, nil
}

func (a *Delegate) Review(Common) (Review, error) {
	r := Review{Title: "Delegate"}
	r.addName("Sender", a.Sender)
	r.addName("Receiver", a.Receiver)
	r.add("CPU", a.CPUQuantity.String())
	r.add("NET", a.NetQuantity.String())
	if a.Transfer {
		r.addName("Transfer to", a.Receiver)
	}
	return r, nil
}

func (a *Undelegate) Review(Common) (Review, error) {
	r := Review{Title: "Undelegate"}
	r.addName("Sender", a.Sender)
	r.addName("Receiver", a.Receiver)
	r.add("CPU", a.CPUQuantity.String())
	r.add("NET", a.NetQuantity.String())
	return r, nil
}

func (a *Refund) Review(Common) (Review, error) {
	r := Review{Title: "Refund"}
	r.addName("Owner", a.Owner)
	return r, nil
}

func (a *VoteProducer) Review(Common) (Review, error) {
	switch {
	case a.Proxy != 0 && len(a.Producers) == 0:
		r := Review{Title: "Vote for proxy"}
		r.addName("Voter", a.Voter)
		r.addName("Proxy", a.Proxy)
		return r, nil
	case len(a.Producers) > 0:
		r := Review{Title: "Vote for producers"}
		r.addName("Voter", a.Voter)
		for i, p := range a.Producers {
			r.addName(fmt.Sprintf("%2d.", i+1), p)
		}
		return r, nil
	default:
		r := Review{Title: "Cancel vote"}
		r.addName("Voter", a.Voter)
		return r, nil
	}
}

func (a *UpdateAuth) Review(Common) (Review, error) {
	r := Review{Title: "Update Auth"}
	r.addName("Account", a.Account)
	r.addName("Permission", a.Permission)
	r.addName("Parent", a.Parent)
	if err := r.addAuthority("", a.Auth); err != nil {
		return Review{}, err
	}
	return r, nil
}

func (a *DeleteAuth) Review(Common) (Review, error) {
	r := Review{Title: "Delete auth"}
	r.addName("Account", a.Account)
	r.addName("Permission", a.Permission)
	return r, nil
}

func (a *LinkAuth) Review(Common) (Review, error) {
	r := Review{Title: "Link Auth"}
	r.addName("Account", a.Account)
	r.addName("Code", a.Code)
	r.addName("Type", a.Type)
	r.addName("Requirement", a.Requirement)
	return r, nil
}

func (a *UnlinkAuth) Review(Common) (Review, error) {
	r := Review{Title: "Unlink Auth"}
	r.addName("Account", a.Account)
	r.addName("Code", a.Code)
	r.addName("Type", a.Type)
	return r, nil
}

func (a *NewAccount) Review(Common) (Review, error) {
	r := Review{Title: "New Account"}
	r.addName("Creator", a.Creator)
	r.addName("Name", a.Name)
	if err := r.addAuthority("Owner ", a.Owner); err != nil {
		return Review{}, err
	}
	if err := r.addAuthority("Active ", a.Active); err != nil {
		return Review{}, err
	}
	return r, nil
}

func (r *Review) addAuthority(prefix string, auth Authority) error {
	r.add(prefix+"Threshold", uintString(uint64(auth.Threshold)))

	for i, k := range auth.Keys {
		key, err := codec.PublicKeyToString(k.Key)
		if err != nil {
			return err
		}
		r.add(fmt.Sprintf("%sKey #%d", prefix, i+1), key)
		r.add(fmt.Sprintf("%sKey #%d Weight", prefix, i+1), uintString(uint64(k.Weight)))
	}

	for i, acc := range auth.Accounts {
		r.addName(fmt.Sprintf("%sAccount #%d", prefix, i+1), acc.Account.Actor)
		r.addName(fmt.Sprintf("%sAcc Permission #%d", prefix, i+1), acc.Account.Permission)
		r.add(fmt.Sprintf("%sAccount #%d weight", prefix, i+1), uintString(uint64(acc.Weight)))
	}

	for i, wait := range auth.Waits {
		r.add(fmt.Sprintf("%sDelay #%d", prefix, i+1), fmt.Sprintf("%d sec", wait.WaitSec))
		r.add(fmt.Sprintf("%sDelay #%d weight", prefix, i+1), uintString(uint64(wait.Weight)))
	}

	return nil
}

// UnknownReview 不透明数据接收完毕后展示，显示校验和而非数据本身
func UnknownReview(common Common, size uint32, checksum []byte) Review {
	r := Review{Title: codec.NameToString(common.Name) + " Action"}
	r.addName("Contract", common.Account)
	r.add("Size", fmt.Sprintf("%d bytes", size))
	r.add("Checksum", hex.EncodeToString(checksum))
	return r
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

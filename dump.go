package rtcbus

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// MessageSummary is the display form of a Message.
type MessageSummary struct {
	Index     int    `yaml:"index"`
	Direction string `yaml:"direction"`
	Address   string `yaml:"address"`
	Length    int    `yaml:"length"`
	Data      string `yaml:"data"`
}

func (tx Transaction) Summary() []MessageSummary {
	res := make([]MessageSummary, 0, len(tx))
	for i, m := range tx {
		res = append(res, MessageSummary{
			Index:     i,
			Direction: m.Dir.String(),
			Address:   m.Addr.String(),
			Length:    len(m.Buf),
			Data:      hex.EncodeToString(m.Buf),
		})
	}
	return res
}

// Dump renders the transaction one message per line, for example:
//
//	#0 W 0x34 len=1 02
//	#1 R 0x34 len=1 1e
func Dump(tx Transaction) string {
	var b strings.Builder
	for i, m := range tx {
		_, _ = fmt.Fprintf(&b, "#%d %s %s len=%d % x\n", i, m.Dir, m.Addr, len(m.Buf), m.Buf)
	}
	return b.String()
}

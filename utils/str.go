package utils

import (
	"strconv"
	"strings"
)

// 解析以sep分隔的非负整数列表，任一项非法即报错
func StrToInts(s, sep string) (rets []int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	ids := strings.Split(s, sep)
	rets = make([]int, 0, len(ids))
	var i int
	for _, id := range ids {
		if i, err = strconv.Atoi(strings.TrimSpace(id)); err != nil {
			rets = nil
			return
		}
		rets = append(rets, i)
	}
	return
}

func IntsToStr(ids []int, sep byte) string {
	var ret strings.Builder
	for i, id := range ids {
		if i > 0 {
			ret.WriteByte(sep)
		}
		ret.WriteString(strconv.Itoa(id))
	}
	return ret.String()
}

package room

import "math/rand/v2"

const (
	// IDLength 牌桌号长度
	IDLength = 6
	idChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewTableID 生成 6 位大写字母数字牌桌号
func NewTableID() string {
	b := make([]byte, IDLength)
	for i := range b {
		b[i] = idChars[rand.IntN(len(idChars))]
	}
	return string(b)
}

// ValidTableID 检查牌桌号格式
func ValidTableID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

package core

// SeatCount 每桌座位数, 座位号 0..3 按顺时针轮转
const SeatCount = 4

// NextSeat 下家
func NextSeat(seat int) int {
	return (seat + 1) % SeatCount
}

// ValidSeat 座位号是否合法
func ValidSeat(seat int) bool {
	return seat >= 0 && seat < SeatCount
}

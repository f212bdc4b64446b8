package registry

import (
	"time"

	"github.com/paisa-pay/paisa_pay/internal/money"
)

// User is a registered wallet owner. Every user owns exactly one wallet,
// created in the same unit of work as the user itself.
type User struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// UserWithBalance annotates a user with their current wallet balance for
// listing views. A missing wallet row renders as 0.00; user creation always
// provisions the wallet, so that path should not occur.
type UserWithBalance struct {
	User
	WalletBalance money.Money
}

package model

// UserAccount holds a user's reward balance and referral counters.
type UserAccount struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Balance    int64  `json:"balance"`
	ReferredBy *int64 `json:"ref_by,omitempty"`
	Referrals  int64  `json:"referrals"`
	Withdraws  int64  `json:"withdraws"`
}

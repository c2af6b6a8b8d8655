package config

import "time"

type KycConfig interface {
	GetMonthlyThresholdCents() int64
	GetKycWindowDays() int
	GetAdminKycGrace() time.Duration
}

type Kyc struct {
	MonthlyThresholdCents int64         `env:"KYC_MONTHLY_THRESHOLD_CENTS" envDefault:"100000"`
	WindowDays            int           `env:"KYC_WINDOW_DAYS"             envDefault:"30"`
	AdminGrace            time.Duration `env:"KYC_ADMIN_GRACE"             envDefault:"24h"`
}

var _ KycConfig = Kyc{}

func (k Kyc) GetMonthlyThresholdCents() int64 {
	return k.MonthlyThresholdCents
}

func (k Kyc) GetKycWindowDays() int {
	if k.WindowDays <= 0 {
		return 30
	}
	return k.WindowDays
}

func (k Kyc) GetAdminKycGrace() time.Duration {
	return k.AdminGrace
}

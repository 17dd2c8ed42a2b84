// Package bootstrap は初回起動時の初期データ投入を行う。
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/brightsmile/internal/model"
	"github.com/hitoshi/brightsmile/internal/repository"
)

// 初期管理者のアカウント情報
const (
	AdminEmail = "admin@clinic.com"
	AdminName  = "Admin User"
)

// DefaultServices は診療メニューが空の場合に登録する初期メニュー。
var DefaultServices = []model.Service{
	{
		Title:       "Teeth brace/orthodontic",
		Description: "We help straighten your teeth with braces and other orthodontic care. Our treatment makes your smile better, fixes bite problems, and keeps your mouth healthy. Each plan is made to fit your needs.",
	},
	{
		Title:       "Teeth washing/bleaching",
		Description: "We clean and whiten your teeth to make your smile brighter. Our safe treatment removes stains and helps your teeth look fresh and healthy.",
	},
	{
		Title:       "Implants / prosthodontist",
		Description: "We replace missing teeth safely with implants. Our modern implant service is designed to match your other teeth beautifully. We use high-quality materials such as zirconia, ceramic, Aermax, and flexible dentures to make your smile complete again. This treatment brings back your confidence and improves your quality of life.",
	},
	{
		Title:       "Restorations",
		Description: "We restore your teeth to their natural look without harming the surrounding teeth.",
	},
	{
		Title:       "Child Dental Care",
		Description: "We provide exceptional kids dental care ensuring that children receive gentle and expert treatment for a lifetime of healthy smiles.",
	},
	{
		Title:       "Emergency Dental Care",
		Description: "Alif Dental Clinic is here to provide fast and effective emergency dental care in Addis Ababa, helping you manage pain and prevent further damage.",
	},
	{
		Title:       "Cosmetic Dentistry",
		Description: "Our cosmetic dentistry services are designed to enhance your appearance and boost your confidence using the latest technology and expert care.",
	},
	{
		Title:       "Oral & MaxilloFacial Surgery",
		Description: "Our experienced surgeons perform a range of oral and maxillofacial procedures, ensuring you receive the best care possible.",
	},
}

// PasswordHasher はパスワードのハッシュ化を行う。
type PasswordHasher func(password string) (string, error)

// SeedConfig は初期データ投入の設定。
type SeedConfig struct {
	AdminPassword string
	// AdminPasswordDefault は組み込みの既定パスワードを使っている場合true。
	AdminPasswordDefault bool
}

// Seeder は初期管理者と初期メニューを登録する。
// 何度実行しても管理者1件、初期メニュー1セットのみが存在する状態になる。
type Seeder struct {
	users    repository.UserRepository
	services repository.ServiceRepository
	hash     PasswordHasher
	config   SeedConfig
	logger   *slog.Logger
}

// NewSeeder はSeederを生成する。
func NewSeeder(
	users repository.UserRepository,
	services repository.ServiceRepository,
	hash PasswordHasher,
	config SeedConfig,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{
		users:    users,
		services: services,
		hash:     hash,
		config:   config,
		logger:   logger,
	}
}

// Run は初期データを投入する。
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.seedAdmin(ctx); err != nil {
		return err
	}
	return s.seedServices(ctx)
}

func (s *Seeder) seedAdmin(ctx context.Context) error {
	hash, err := s.hash(s.config.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &model.User{
		Name:         AdminName,
		Email:        AdminEmail,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	created, err := s.users.CreateIfAbsent(ctx, admin)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if created {
		s.logger.Info("admin user created",
			slog.Int64("user_id", admin.ID),
			slog.String("email", AdminEmail),
		)
	} else {
		s.logger.Info("admin user already exists", slog.String("email", AdminEmail))
	}

	// 既定パスワードの場合は管理者の作成有無によらず毎回警告する
	if s.config.AdminPasswordDefault {
		s.logger.Warn("ADMIN_DEFAULT_PASSWORD is not set; the built-in default admin password is a known weak credential and must be rotated before exposing the site",
			slog.String("email", AdminEmail),
			slog.Bool("admin_created", created),
		)
	}
	return nil
}

func (s *Seeder) seedServices(ctx context.Context) error {
	n, err := s.services.SeedIfEmpty(ctx, DefaultServices)
	if err != nil {
		return fmt.Errorf("failed to seed services: %w", err)
	}
	if n > 0 {
		s.logger.Info("default services seeded", slog.Int("count", n))
	}
	return nil
}

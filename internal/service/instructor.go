package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"instainstru/internal/availability"
	"instainstru/internal/model"
	"instainstru/internal/payment"
	"instainstru/internal/repository"
	"instainstru/internal/storage"
)

// Instructor onboarding limits.
const (
	MinBioLength       = 20
	MaxBioLength       = 2000
	MaxPhotoBytes      = 5 << 20
	MinHourlyRateCents = 10_00
	MaxHourlyRateCents = 1000_00
	photoURLTTL        = time.Hour
)

// AllowedDurations are the lesson lengths instructors may offer.
var AllowedDurations = []int{30, 45, 60, 90, 120}

var photoExt = map[string]string{"image/jpeg": ".jpg", "image/png": ".png"}

// Onboarding checklist items.
const (
	StepProfile      = "profile"
	StepServices     = "services"
	StepPayouts      = "payouts"
	StepAvailability = "availability"
)

// ProfileInput is the editable part of an instructor profile.
type ProfileInput struct {
	Bio             string   `json:"bio"`
	YearsExperience int      `json:"years_experience"`
	ServiceAreas    []string `json:"service_areas"`
}

// ServiceInput describes an offered service.
type ServiceInput struct {
	CatalogServiceID string `json:"catalog_service_id"`
	HourlyRateCents  int64  `json:"hourly_rate_cents"`
	DurationOptions  []int  `json:"duration_options"`
	Description      string `json:"description"`
}

// InstructorDetail is the public view of an instructor.
type InstructorDetail struct {
	ID        string                    `json:"id"`
	FirstName string                    `json:"first_name"`
	LastName  string                    `json:"last_name"`
	Profile   *model.InstructorProfile  `json:"profile"`
	Services  []model.InstructorService `json:"services"`
}

// InstructorService covers instructor onboarding.
type InstructorService interface {
	GetPublic(ctx context.Context, instructorID string) (*InstructorDetail, error)
	UpsertProfile(ctx context.Context, userID string, in ProfileInput) (*model.InstructorProfile, error)
	UploadPhoto(ctx context.Context, userID string, r io.Reader, contentType string, size int64) (*model.InstructorProfile, error)
	AddService(ctx context.Context, userID string, in ServiceInput) (*model.InstructorService, error)
	UpdateService(ctx context.Context, userID, serviceID string, in ServiceInput) (*model.InstructorService, error)
	RemoveService(ctx context.Context, userID, serviceID string) error
	// Connect creates the payout account if needed and returns an onboarding link.
	Connect(ctx context.Context, userID string) (string, error)
	RefreshPayouts(ctx context.Context, userID string) (*model.OnboardingStatus, error)
	// SetPayoutsByAccount applies a processor account update.
	SetPayoutsByAccount(ctx context.Context, accountID string, enabled bool) error
	Onboarding(ctx context.Context, userID string) (*model.OnboardingStatus, error)
	GoLive(ctx context.Context, userID string) (*model.OnboardingStatus, error)
}

type instructorService struct {
	repo      repository.InstructorRepository
	users     repository.UserRepository
	catalog   repository.CatalogRepository
	avail     repository.AvailabilityRepository
	store     storage.Storage
	processor payment.Processor
	loc       *time.Location
	log       zerolog.Logger
	now       func() time.Time
}

// InstructorDeps groups the collaborators of the instructor service.
type InstructorDeps struct {
	Instructors  repository.InstructorRepository
	Users        repository.UserRepository
	Catalog      repository.CatalogRepository
	Availability repository.AvailabilityRepository
	Storage      storage.Storage
	Processor    payment.Processor
}

// NewInstructorService constructs an InstructorService.
func NewInstructorService(d InstructorDeps, loc *time.Location, logger zerolog.Logger) InstructorService {
	return &instructorService{
		repo:      d.Instructors,
		users:     d.Users,
		catalog:   d.Catalog,
		avail:     d.Availability,
		store:     d.Storage,
		processor: d.Processor,
		loc:       loc,
		log:       logger,
		now:       time.Now,
	}
}

func (s *instructorService) withPhotoURL(ctx context.Context, p *model.InstructorProfile) *model.InstructorProfile {
	if p.PhotoKey == "" {
		return p
	}
	url, err := s.store.PresignGet(ctx, p.PhotoKey, photoURLTTL)
	if err != nil {
		s.log.Warn().Err(err).Str("key", p.PhotoKey).Msg("presign photo")
		return p
	}
	p.PhotoURL = url
	return p
}

func (s *instructorService) GetPublic(ctx context.Context, instructorID string) (*InstructorDetail, error) {
	p, err := s.repo.FindProfile(ctx, instructorID)
	if err != nil {
		return nil, notFound(err, "instructor")
	}
	if !p.IsLive {
		return nil, errorf(ErrNotFound, "instructor not found")
	}
	u, err := s.users.FindByID(ctx, instructorID)
	if err != nil {
		return nil, notFound(err, "instructor")
	}
	services, err := s.repo.ListServices(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	return &InstructorDetail{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Profile:   s.withPhotoURL(ctx, p),
		Services:  activeServices(services),
	}, nil
}

func activeServices(in []model.InstructorService) []model.InstructorService {
	out := make([]model.InstructorService, 0, len(in))
	for _, svc := range in {
		if svc.IsActive {
			out = append(out, svc)
		}
	}
	return out
}

func (s *instructorService) UpsertProfile(ctx context.Context, userID string, in ProfileInput) (*model.InstructorProfile, error) {
	bio := strings.TrimSpace(in.Bio)
	if len([]rune(bio)) > MaxBioLength {
		return nil, errorf(ErrValidation, "bio must be at most %d characters", MaxBioLength)
	}
	if in.YearsExperience < 0 || in.YearsExperience > 80 {
		return nil, errorf(ErrValidation, "years_experience must be between 0 and 80")
	}
	areas := make([]string, 0, len(in.ServiceAreas))
	for _, a := range in.ServiceAreas {
		if a = strings.TrimSpace(a); a != "" {
			areas = append(areas, a)
		}
	}

	now := s.now().UTC()
	p, err := s.repo.FindProfile(ctx, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		p = &model.InstructorProfile{UserID: userID, CreatedAt: now}
	case err != nil:
		return nil, err
	}
	p.Bio = bio
	p.YearsExperience = in.YearsExperience
	p.ServiceAreas = areas
	p.UpdatedAt = now

	saved, err := s.repo.UpsertProfile(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return s.withPhotoURL(ctx, saved), nil
}

func (s *instructorService) UploadPhoto(ctx context.Context, userID string, r io.Reader, contentType string, size int64) (*model.InstructorProfile, error) {
	if r == nil {
		return nil, errorf(ErrValidation, "photo is required")
	}
	ext, ok := photoExt[contentType]
	if !ok {
		return nil, errorf(ErrValidation, "photo must be a jpeg or png image")
	}
	if size <= 0 || size > MaxPhotoBytes {
		return nil, errorf(ErrValidation, "photo must be at most 5 MiB")
	}
	p, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		return nil, notFound(err, "profile")
	}

	key := storage.PhotoKey(userID, strconv.FormatInt(s.now().UnixNano(), 36), ext)
	if _, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{Size: size, ContentType: contentType}); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}
	if err := s.repo.UpdatePhoto(ctx, userID, key); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	if p.PhotoKey != "" {
		if err := s.store.Delete(ctx, p.PhotoKey); err != nil {
			s.log.Warn().Err(err).Str("key", p.PhotoKey).Msg("delete previous photo")
		}
	}
	p.PhotoKey = key
	return s.withPhotoURL(ctx, p), nil
}

func normalizeDurations(in []int) ([]int, error) {
	if len(in) == 0 {
		return nil, errorf(ErrValidation, "at least one duration is required")
	}
	seen := make(map[int]bool)
	out := make([]int, 0, len(in))
	for _, d := range in {
		allowed := false
		for _, a := range AllowedDurations {
			if d == a {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, errorf(ErrValidation, "duration %d is not one of %v", d, AllowedDurations)
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out, nil
}

func validateService(in ServiceInput) ([]int, error) {
	if in.HourlyRateCents < MinHourlyRateCents || in.HourlyRateCents > MaxHourlyRateCents {
		return nil, errorf(ErrValidation, "hourly rate must be between $10 and $1000")
	}
	return normalizeDurations(in.DurationOptions)
}

func (s *instructorService) AddService(ctx context.Context, userID string, in ServiceInput) (*model.InstructorService, error) {
	durations, err := validateService(in)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindProfile(ctx, userID); err != nil {
		return nil, notFound(err, "profile")
	}
	cs, err := s.catalog.FindService(ctx, in.CatalogServiceID)
	if err != nil {
		return nil, notFound(err, "catalog service")
	}
	existing, err := s.repo.ListServices(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.IsActive && e.CatalogServiceID == cs.ID {
			return nil, errorf(ErrConflict, "%s is already offered", cs.Name)
		}
	}
	created, err := s.repo.CreateService(ctx, &model.InstructorService{
		ID:               uuid.NewString(),
		InstructorID:     userID,
		CatalogServiceID: cs.ID,
		ServiceName:      cs.Name,
		HourlyRateCents:  in.HourlyRateCents,
		DurationOptions:  durations,
		Description:      strings.TrimSpace(in.Description),
		IsActive:         true,
		CreatedAt:        s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	return created, nil
}

func (s *instructorService) ownedService(ctx context.Context, userID, serviceID string) (*model.InstructorService, error) {
	svc, err := s.repo.FindService(ctx, serviceID)
	if err != nil {
		return nil, notFound(err, "service")
	}
	if svc.InstructorID != userID {
		return nil, errorf(ErrForbidden, "service belongs to another instructor")
	}
	if !svc.IsActive {
		return nil, errorf(ErrNotFound, "service not found")
	}
	return svc, nil
}

func (s *instructorService) UpdateService(ctx context.Context, userID, serviceID string, in ServiceInput) (*model.InstructorService, error) {
	durations, err := validateService(in)
	if err != nil {
		return nil, err
	}
	svc, err := s.ownedService(ctx, userID, serviceID)
	if err != nil {
		return nil, err
	}
	svc.HourlyRateCents = in.HourlyRateCents
	svc.DurationOptions = durations
	svc.Description = strings.TrimSpace(in.Description)
	updated, err := s.repo.UpdateService(ctx, svc)
	if err != nil {
		return nil, notFound(err, "service")
	}
	return updated, nil
}

func (s *instructorService) RemoveService(ctx context.Context, userID, serviceID string) error {
	if _, err := s.ownedService(ctx, userID, serviceID); err != nil {
		return err
	}
	return notFound(s.repo.DeactivateService(ctx, userID, serviceID), "service")
}

func (s *instructorService) Connect(ctx context.Context, userID string) (string, error) {
	p, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		return "", notFound(err, "profile")
	}
	if p.StripeAccountID == "" {
		u, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return "", notFound(err, "user")
		}
		accountID, err := s.processor.CreateConnectedAccount(ctx, userID, u.Email)
		if err != nil {
			return "", fmt.Errorf("create payout account: %w", err)
		}
		if err := s.repo.SetStripeAccount(ctx, userID, accountID); err != nil {
			return "", err
		}
		p.StripeAccountID = accountID
	}
	link, err := s.processor.OnboardingLink(ctx, p.StripeAccountID)
	if err != nil {
		return "", fmt.Errorf("create onboarding link: %w", err)
	}
	return link, nil
}

func (s *instructorService) RefreshPayouts(ctx context.Context, userID string) (*model.OnboardingStatus, error) {
	p, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	if p.StripeAccountID == "" {
		return nil, errorf(ErrValidation, "payout account is not connected")
	}
	st, err := s.processor.AccountStatus(ctx, p.StripeAccountID)
	if err != nil {
		return nil, fmt.Errorf("account status: %w", err)
	}
	if st.PayoutsEnabled != p.PayoutsEnabled {
		if err := s.repo.SetPayoutsEnabled(ctx, userID, st.PayoutsEnabled); err != nil {
			return nil, err
		}
	}
	return s.Onboarding(ctx, userID)
}

func (s *instructorService) SetPayoutsByAccount(ctx context.Context, accountID string, enabled bool) error {
	p, err := s.repo.FindByStripeAccount(ctx, accountID)
	if err != nil {
		return notFound(err, "payout account")
	}
	if p.PayoutsEnabled == enabled {
		return nil
	}
	s.log.Info().Str("instructor_id", p.UserID).Bool("payouts_enabled", enabled).Msg("payout status changed")
	return s.repo.SetPayoutsEnabled(ctx, p.UserID, enabled)
}

func (s *instructorService) Onboarding(ctx context.Context, userID string) (*model.OnboardingStatus, error) {
	st := &model.OnboardingStatus{}
	p, err := s.repo.FindProfile(ctx, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		p = &model.InstructorProfile{UserID: userID}
	case err != nil:
		return nil, err
	}
	st.ProfileComplete = len([]rune(strings.TrimSpace(p.Bio))) >= MinBioLength
	st.PayoutsEnabled = p.PayoutsEnabled
	st.IsLive = p.IsLive

	services, err := s.repo.ListServices(ctx, userID)
	if err != nil {
		return nil, err
	}
	st.HasServices = len(activeServices(services)) > 0

	st.HasAvailability, err = s.avail.HasAnyFrom(ctx, userID, availability.DateOf(s.now(), s.loc))
	if err != nil {
		return nil, err
	}

	st.Missing = make([]string, 0, 4)
	if !st.ProfileComplete {
		st.Missing = append(st.Missing, StepProfile)
	}
	if !st.HasServices {
		st.Missing = append(st.Missing, StepServices)
	}
	if !st.PayoutsEnabled {
		st.Missing = append(st.Missing, StepPayouts)
	}
	if !st.HasAvailability {
		st.Missing = append(st.Missing, StepAvailability)
	}
	return st, nil
}

func (s *instructorService) GoLive(ctx context.Context, userID string) (*model.OnboardingStatus, error) {
	st, err := s.Onboarding(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !st.Ready() {
		return st, errorf(ErrValidation, "onboarding incomplete: %s", strings.Join(st.Missing, ", "))
	}
	if !st.IsLive {
		if err := s.repo.SetLive(ctx, userID, true); err != nil {
			return nil, err
		}
		st.IsLive = true
		s.log.Info().Str("instructor_id", userID).Msg("instructor is live")
	}
	return st, nil
}

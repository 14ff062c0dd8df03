package church

import (
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/subscription"
	"github.com/actionunitmanager/backend/core/user"
)

var (
	// errors
	ErrNotFound    = errors.New("church not found")
	ErrEmailExists = errors.New("a church with this email already exists")
)

const welcomeBody = `Welcome to {{.Data.AppName}}!

Your church "{{.Data.ChurchName}}" has been registered and a 30-day free trial
has been activated. Sign in at {{.FrontendBaseURL}} to set up your Action Unit
classes.`

type (
	Repository interface {
		CheckEmailUniqueness(email string) error
		CreateChurch(ch Church) (Church, error)
		GetChurchByID(id string) (Church, error)
	}

	Service struct {
		repo    Repository
		usrSvc  user.ServiceInterface
		subSvc  *subscription.Service
		mailSvc core.EmailService
	}

	// RegistrationResult bundles everything created during signup.
	RegistrationResult struct {
		Church         Church
		Superintendent user.User
		Subscription   subscription.Subscription
	}
)

func NewService(repo Repository, usrSvc user.ServiceInterface, subSvc *subscription.Service, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, usrSvc: usrSvc, subSvc: subSvc, mailSvc: mailSvc}
}

func (svc *Service) GetByID(id string) (Church, error) {
	return svc.repo.GetChurchByID(id)
}

// Register creates the church, its superintendent account and the free-trial
// subscription, then sends the welcome email.
func (svc *Service) Register(reg Registration) (RegistrationResult, error) {
	if err := svc.repo.CheckEmailUniqueness(reg.Church.Email); err != nil {
		if err == ErrEmailExists {
			return RegistrationResult{}, core.NewValidationError(err, core.FieldError{Field: "church_email", Error: err.Error()})
		}
		return RegistrationResult{}, errors.Wrap(err, "checking church email uniqueness")
	}

	now := time.Now().UTC()
	ch := Church{
		Name:         reg.Church.Name,
		Email:        reg.Church.Email,
		Phone:        reg.Church.Phone,
		Address:      reg.Church.Address,
		District:     reg.Church.District,
		Country:      reg.Church.Country,
		Denomination: reg.Church.Denomination,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	ch, err := svc.repo.CreateChurch(ch)
	if err != nil {
		return RegistrationResult{}, errors.Wrap(err, "creating church")
	}

	super, err := svc.usrSvc.Create(ch.ID, user.NewUser{
		Name:     reg.Superintendent.Name,
		Email:    reg.Superintendent.Email,
		Phone:    reg.Superintendent.Phone,
		Role:     user.RoleSuperintendent,
		Password: reg.Superintendent.Password,
	})
	if err != nil {
		return RegistrationResult{}, errors.Wrap(err, "creating superintendent")
	}

	sub, err := svc.subSvc.StartTrial(ch.ID)
	if err != nil {
		return RegistrationResult{}, errors.Wrap(err, "starting trial")
	}

	svc.sendWelcomeEmail(ch, super)

	return RegistrationResult{Church: ch, Superintendent: super, Subscription: sub}, nil
}

func (svc *Service) sendWelcomeEmail(ch Church, super user.User) {
	if svc.mailSvc == nil || super.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: super.Name, Address: super.Email}},
		Subject:      "Welcome to " + core.Conf.AppName,
		BodyTemplate: welcomeBody,
		TemplateData: map[string]string{
			"AppName":    core.Conf.AppName,
			"ChurchName": ch.Name,
		},
	})
}

package main

import (
	"fmt"

	"github.com/actionunitmanager/backend/core/church"
)

// createChurch registers a church with its superintendent account and a
// 30-day trial subscription, same as the signup endpoint.
func (cli *commandLine) createChurch(name, email, superName, superEmail, superPhone, pwd string) error {
	res, err := cli.churchSvc.Register(church.Registration{
		Church: church.NewChurch{
			Name:         name,
			Email:        email,
			Country:      church.DefaultCountry,
			Denomination: church.DefaultDenomination,
		},
		Superintendent: church.NewSuperintendent{
			Name:     superName,
			Email:    superEmail,
			Phone:    superPhone,
			Password: pwd,
		},
	})
	if err != nil {
		return err
	}
	fmt.Printf("church %q created (id=%s), trial ends %s\n", res.Church.Name, res.Church.ID, res.Subscription.TrialEndDate)
	return nil
}

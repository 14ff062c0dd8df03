package main

func (cli *commandLine) resetPassword(email, pwd string) error {
	usr, err := cli.usrSvc.GetByEmail(email)
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.SetPassword(usr, pwd)
	return err
}

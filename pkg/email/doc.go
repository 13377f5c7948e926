// Package email sends notification emails through Postmark, or writes them to
// disk with DevSender when no Postmark token is configured.
//
//	sender, err := email.NewSender(cfg)
//	if err != nil {
//		return err
//	}
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   "jane@example.com",
//		Subject:  "New lead",
//		BodyText: "A new lead was assigned to you.",
//		Tag:      "new_lead",
//	})
package email

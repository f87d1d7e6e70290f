package slots

// Action types understood by the function dispatcher.
const (
	ActionBookAppointment       = "book_appointment"
	ActionRescheduleAppointment = "reschedule_appointment"
	ActionCancelAppointment     = "cancel_appointment"
	ActionSendEmail             = "send_email"
	ActionSendSMS               = "send_sms"
	ActionSendWhatsApp          = "send_whatsapp"
)

// DefaultSchemas returns the built-in action flows. Deployments usually
// override prompts and retry bounds through the policy file; the shapes
// here are the canonical ones.
func DefaultSchemas() map[string]Schema {
	schemas := []Schema{
		{
			Action: ActionBookAppointment,
			ConfirmTemplate: "Let me confirm your booking. Your name is {client_name}, " +
				"your email is {client_email}, your phone number is {client_phone}, " +
				"with {company_name}, on {booking_date} at {booking_time} for a {service_type}. " +
				"Is that all correct?",
			Fields: []Field{
				{Name: "client_name", Kind: KindName, Required: true, Prompt: "Can I have your full name, please?"},
				{Name: "client_email", Kind: KindEmail, Required: true, Prompt: "What's the best email address for you?"},
				{Name: "client_phone", Kind: KindPhone, Required: true, Prompt: "And your phone number, with the country code?"},
				{Name: "company_name", Kind: KindText, Required: true, Prompt: "What company are you with?"},
				{Name: "booking_date", Kind: KindDate, Required: true, Prompt: "What date works for you? Year, month, and day."},
				{Name: "booking_time", Kind: KindTime, Required: true, Prompt: "And what time of day?"},
				{Name: "service_type", Kind: KindText, Required: true, Prompt: "What kind of service do you need? For example a consultation or a demo."},
				{Name: "purpose", Kind: KindText, Required: false, Prompt: "Briefly, what's the appointment about? You can skip this if you like."},
			},
		},
		{
			Action: ActionRescheduleAppointment,
			ConfirmTemplate: "So I'll move the appointment under {client_email} to {new_date} at {new_time}. " +
				"Shall I go ahead?",
			Fields: []Field{
				{Name: "client_email", Kind: KindEmail, Required: true, Prompt: "What's the email address the booking is under?"},
				{Name: "new_date", Kind: KindDate, Required: true, Prompt: "What new date would you like? Year, month, and day."},
				{Name: "new_time", Kind: KindTime, Required: true, Prompt: "And the new time?"},
			},
		},
		{
			Action:          ActionCancelAppointment,
			ConfirmTemplate: "I'll cancel the appointment under {client_email}. Are you sure?",
			Fields: []Field{
				{Name: "client_email", Kind: KindEmail, Required: true, Prompt: "What's the email address the booking is under?"},
			},
		},
		{
			Action:          ActionSendEmail,
			ConfirmTemplate: "I'll send an email to {recipient_email} with the subject {subject}. Shall I send it?",
			Fields: []Field{
				{Name: "recipient_email", Kind: KindEmail, Required: true, Prompt: "Who should I send the email to?"},
				{Name: "subject", Kind: KindText, Required: true, Prompt: "What's the subject line?"},
				{Name: "message", Kind: KindText, Required: true, Prompt: "And what should the email say?"},
			},
		},
		{
			Action:          ActionSendSMS,
			ConfirmTemplate: "I'll text {phone_number} saying {message}. Shall I send it?",
			Fields: []Field{
				{Name: "phone_number", Kind: KindPhone, Required: true, Prompt: "What number should I text, with the country code?"},
				{Name: "message", Kind: KindText, Required: true, Prompt: "What should the message say?"},
			},
		},
		{
			Action:          ActionSendWhatsApp,
			ConfirmTemplate: "I'll send a WhatsApp message to {phone_number} saying {message}. Shall I send it?",
			Fields: []Field{
				{Name: "phone_number", Kind: KindPhone, Required: true, Prompt: "What's the WhatsApp number, with the country code?"},
				{Name: "message", Kind: KindText, Required: true, Prompt: "What should the message say?"},
			},
		},
	}

	byAction := make(map[string]Schema, len(schemas))
	for _, schema := range schemas {
		byAction[schema.Action] = schema
	}
	return byAction
}

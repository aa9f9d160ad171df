package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/providers"
	"github.com/zatekoja/careline/internal/domain/repositories"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

// SetMemberFieldsFunction is the only function the update model may call
const SetMemberFieldsFunction = "set_member_fields"

const instructionPrompt = `You maintain member records for a health clinic.
The caller's current record is shown below. Read the instruction and, if it asks to change
the caller's email, street address, city, state, zip code, gender or date of birth, call
set_member_fields with only the fields that change. Use YYYY-MM-DD for dates and a
two-letter code for the state.
If the instruction asks for anything else, do not call the function. Reply in one short
sentence explaining what cannot be changed over the phone.

### Current Record:
%s`

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	statePattern = regexp.MustCompile(`^[A-Z]{2}$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

var setMemberFieldsSchema = providers.ToolSchema{
	Name:        SetMemberFieldsFunction,
	Description: "Update the caller's contact or demographic fields. Omit fields that do not change.",
	Parameters: []providers.ToolParameter{
		{Name: "email", Type: "string", Description: "New email address"},
		{Name: "street_address", Type: "string", Description: "New street address, e.g. 12 Spruce St"},
		{Name: "city", Type: "string", Description: "New city"},
		{Name: "state", Type: "string", Description: "New two-letter state code"},
		{Name: "zip_code", Type: "string", Description: "New 5-digit zip code"},
		{Name: "gender", Type: "string", Description: "New gender"},
		{Name: "date_of_birth", Type: "string", Description: "Corrected date of birth, YYYY-MM-DD"},
	},
}

// InstructionService turns a natural-language change request into a
// validated, whitelisted member update. It implements
// providers.InstructionApplier.
type InstructionService struct {
	llm      providers.LLMProvider
	members  repositories.MemberRepository
	notifier changeNotifier
}

// NewInstructionService creates a new instruction service
func NewInstructionService(
	llm providers.LLMProvider,
	members repositories.MemberRepository,
	cache CacheInvalidator,
	events providers.EventBus,
	instanceID string,
) *InstructionService {
	return &InstructionService{
		llm:      llm,
		members:  members,
		notifier: changeNotifier{cache: cache, events: events, instanceID: instanceID},
	}
}

// ApplyInstruction applies instruction to the member identified by phone
func (s *InstructionService) ApplyInstruction(ctx context.Context, phone, instruction string) (string, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return "", apperrors.NewValidationError("instruction is empty")
	}

	member, err := s.members.GetByPhone(ctx, phone)
	if err != nil {
		return "", err
	}

	completion, err := s.llm.Complete(ctx, &providers.CompletionRequest{
		SystemPrompt: fmt.Sprintf(instructionPrompt, describeRecord(member)),
		Input:        instruction,
		Tools:        []providers.ToolSchema{setMemberFieldsSchema},
	})
	if err != nil {
		return "", err
	}

	if completion.Type != providers.CompletionToolCall || completion.ToolCall == nil {
		return strings.TrimSpace(completion.Text), nil
	}
	if completion.ToolCall.Name != SetMemberFieldsFunction {
		return "", apperrors.NewValidationError(fmt.Sprintf("unsupported update function %q", completion.ToolCall.Name))
	}

	update, err := ParseMemberUpdate(completion.ToolCall.Arguments)
	if err != nil {
		return "", err
	}

	updated, err := s.members.Update(ctx, phone, update)
	if err != nil {
		return "", err
	}

	fields := changedFields(update)
	s.notifier.memberChanged(ctx, phone, "member_updated", map[string]interface{}{
		"fields": fields,
	})

	return fmt.Sprintf("Updated %s for %s.", strings.Join(fields, ", "), updated.FullName()), nil
}

// ParseMemberUpdate validates set_member_fields arguments. Unknown keys are
// rejected so the model cannot touch names, phone numbers or ids.
func ParseMemberUpdate(args map[string]interface{}) (*entities.MemberUpdate, error) {
	update := &entities.MemberUpdate{}

	for key, raw := range args {
		value, ok := raw.(string)
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("%s must be a string", key))
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch key {
		case "email":
			value = strings.ToLower(value)
			if !emailPattern.MatchString(value) {
				return nil, apperrors.NewValidationError(fmt.Sprintf("%q is not a valid email address", value))
			}
			update.Email = &value
		case "street_address":
			update.StreetAddress = &value
		case "city":
			update.City = &value
		case "state":
			value = strings.ToUpper(value)
			if !statePattern.MatchString(value) {
				return nil, apperrors.NewValidationError(fmt.Sprintf("%q is not a two-letter state code", value))
			}
			update.State = &value
		case "zip_code":
			if !zipPattern.MatchString(value) {
				return nil, apperrors.NewValidationError(fmt.Sprintf("%q is not a valid zip code", value))
			}
			update.ZipCode = &value
		case "gender":
			update.Gender = &value
		case "date_of_birth":
			dob, err := time.Parse(entities.DateLayout, value)
			if err != nil {
				return nil, apperrors.NewValidationError(fmt.Sprintf("%q is not a date in YYYY-MM-DD form", value))
			}
			if dob.After(time.Now()) {
				return nil, apperrors.NewValidationError("date of birth cannot be in the future")
			}
			update.DateOfBirth = &dob
		default:
			return nil, apperrors.NewValidationError(fmt.Sprintf("field %q cannot be changed over the phone", key))
		}
	}

	if update.IsEmpty() {
		return nil, apperrors.NewValidationError("the instruction did not change any member fields")
	}
	return update, nil
}

func changedFields(update *entities.MemberUpdate) []string {
	cols := update.Columns()
	fields := make([]string, 0, len(cols))
	for col := range cols {
		fields = append(fields, strings.ReplaceAll(col, "_", " "))
	}
	sort.Strings(fields)
	return fields
}

func describeRecord(m *entities.Member) string {
	return fmt.Sprintf(
		"Name: %s\nEmail: %s\nStreet address: %s\nCity: %s\nState: %s\nZip code: %s\nGender: %s\nDate of birth: %s",
		m.FullName(), m.Email, m.StreetAddress, m.City, m.State, m.ZipCode, m.Gender,
		m.DateOfBirth.Format(entities.DateLayout),
	)
}

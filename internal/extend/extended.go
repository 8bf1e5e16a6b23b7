package extend

import (
	"context"
	"errors"
	"fmt"

	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/go-ldap/ldap/v3"

	ldapclient "github.com/isometry/terraform-provider-ldapext/internal/ldap"
)

// extendedOperation sends one RFC 4511 ExtendedRequest and decodes the
// response value.
type extendedOperation[T any] struct {
	session      ldapclient.Session
	name         string
	requestName  string
	responseName string
	value        *ber.Packet
	fields       map[string]any
	invalid      error
	decode       func(value *ber.Packet) (T, error)
}

func (o *extendedOperation[T]) Send(ctx context.Context) (T, error) {
	if o.invalid != nil {
		var zero T
		return zero, validationError(o.name, o.invalid)
	}

	return invoke(ctx, o.name, o.fields, func() (T, error) {
		var zero T

		req := ldap.NewExtendedRequest(o.requestName, requestValue(o.value))
		resp, err := o.session.Extended(req)
		if err != nil {
			return zero, err
		}

		if resp.Name != "" && resp.Name != o.responseName {
			return zero, protocolError(o.name, fmt.Errorf("%w: name %s, want %s", ErrUnexpectedResponse, resp.Name, o.responseName))
		}

		value, err := responseValue(resp)
		if err != nil {
			return zero, protocolError(o.name, err)
		}

		result, err := o.decode(value)
		if err != nil {
			var ldapErr *ldapclient.LDAPError
			if errors.As(err, &ldapErr) {
				return zero, err
			}
			return zero, protocolError(o.name, err)
		}
		return result, nil
	})
}

// requestValue wraps inner as the [1] requestValue of an ExtendedRequest.
func requestValue(inner *ber.Packet) *ber.Packet {
	if inner == nil {
		return nil
	}
	value := ber.Encode(ber.ClassContext, ber.TypePrimitive, 1, nil, "Extended Request Value")
	value.AppendChild(inner)
	return value
}

// responseValue decodes the element carried by the [11] responseValue. A
// response without a value yields a nil packet.
func responseValue(resp *ldap.ExtendedResponse) (*ber.Packet, error) {
	if resp == nil || resp.Value == nil || resp.Value.Data.Len() == 0 {
		return nil, nil
	}

	packet, err := ber.DecodePacketErr(resp.Value.Data.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to decode response value: %w", err)
	}
	return packet, nil
}

func newOctetString(value, description string) *ber.Packet {
	return ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, value, description)
}

func newInteger(value int64, description string) *ber.Packet {
	return ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, value, description)
}

func requireValue(p *ber.Packet) error {
	if p == nil {
		return ErrMissingResponseValue
	}
	return nil
}

func decodeOctetString(p *ber.Packet, field string) (string, error) {
	if p == nil || p.ClassType != ber.ClassUniversal || p.Tag != ber.TagOctetString {
		return "", fmt.Errorf("%w: %s is not an OCTET STRING", ErrUnexpectedResponse, field)
	}
	return p.Data.String(), nil
}

func decodeInteger(p *ber.Packet, field string) (int64, error) {
	if p == nil || p.ClassType != ber.ClassUniversal || p.Tag != ber.TagInteger {
		return 0, fmt.Errorf("%w: %s is not an INTEGER", ErrUnexpectedResponse, field)
	}
	v, ok := p.Value.(int64)
	if !ok {
		return ber.ParseInt64(p.Data.Bytes())
	}
	return v, nil
}

func decodeSequence(p *ber.Packet, field string, minChildren int) ([]*ber.Packet, error) {
	if p == nil || p.ClassType != ber.ClassUniversal || p.Tag != ber.TagSequence {
		return nil, fmt.Errorf("%w: %s is not a SEQUENCE", ErrUnexpectedResponse, field)
	}
	if len(p.Children) < minChildren {
		return nil, fmt.Errorf("%w: %s has %d elements, want at least %d", ErrUnexpectedResponse, field, len(p.Children), minChildren)
	}
	return p.Children, nil
}

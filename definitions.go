package lneto

// IPProto represents the IP protocol number carried in the IPv4 protocol field.
type IPProto uint8

// IP protocol numbers in use by this stack, plus the wider IANA registry
// values retained for diagnostics.
const (
	IPProtoHopByHop  IPProto = 0  // IPv6 Hop-by-Hop Option [RFC8200]
	IPProtoICMP      IPProto = 1  // Internet Control Message [RFC792]
	IPProtoIGMP      IPProto = 2  // Internet Group Management [RFC1112]
	IPProtoGGP       IPProto = 3  // Gateway-to-Gateway [RFC823]
	IPProtoIPv4      IPProto = 4  // IPv4 encapsulation [RFC2003]
	IPProtoTCP       IPProto = 6  // Transmission Control [RFC793]
	IPProtoEGP       IPProto = 8  // Exterior Gateway Protocol [RFC888]
	IPProtoUDP       IPProto = 17 // User Datagram [RFC768]
	IPProtoIPv6      IPProto = 41 // IPv6 encapsulation [RFC2473]
	IPProtoIPv6ICMP  IPProto = 58 // ICMP for IPv6 [RFC8200]
	IPProtoIPv6NoNxt IPProto = 59 // No Next Header for IPv6 [RFC8200]
	IPProtoSCTP      IPProto = 132
)

func (p IPProto) String() string {
	switch p {
	case IPProtoICMP:
		return "ICMP"
	case IPProtoIGMP:
		return "IGMP"
	case IPProtoIPv4:
		return "IPv4"
	case IPProtoTCP:
		return "TCP"
	case IPProtoEGP:
		return "EGP"
	case IPProtoUDP:
		return "UDP"
	case IPProtoIPv6:
		return "IPv6"
	case IPProtoIPv6ICMP:
		return "IPv6-ICMP"
	case IPProtoSCTP:
		return "SCTP"
	default:
		return "IPProto(?)"
	}
}

package udp

const sizeHeader = 8

package utils

// DateLayout é o formato das datas de fatos diários
const DateLayout = "2006-01-02"
